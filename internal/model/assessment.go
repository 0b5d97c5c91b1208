package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

const DefaultPassingScore = 70

type TestType string

const (
	// TestMCQ 客观选择题，提交后同步自动判分
	TestMCQ TestType = "mcq"
	// TestManual 人工批改，提交后停留在 submitted 状态
	TestManual TestType = "manual"
)

type QuestionKind string

const (
	QuestionObjective QuestionKind = "objective"
	QuestionManual    QuestionKind = "manual"
)

// Question 题目的带标签变体：objective 题携带 Correct 选项下标，
// manual 题没有标准答案。判分时按 Kind 显式分派，不再依据字段形状猜测。
type Question struct {
	Kind    QuestionKind `json:"kind"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`
	Correct *int         `json:"correct,omitempty"`
}

// swagger:model Test
type Test struct {
	BaseModel
	CourseID     uint            `gorm:"index;type:bigint unsigned" json:"courseId"`
	Title        string          `gorm:"size:255;not null" json:"title"`
	Subject      string          `gorm:"size:100" json:"subject"`
	Type         TestType        `gorm:"size:20;default:'mcq'" json:"type"`
	PassingScore int             `gorm:"default:0" json:"passingScore"` // 0 表示使用默认及格线
	Questions    json.RawMessage `gorm:"type:json" json:"questions"`
}

func (Test) TableName() string {
	return "tests"
}

// DecodeQuestions 解析题目列表；存量数据缺失或损坏时返回空列表而不报错，
// 空列表在判分时会落入"待人工批改"分支。
func (t *Test) DecodeQuestions() []Question {
	if len(t.Questions) == 0 {
		return nil
	}
	var qs []Question
	if err := json.Unmarshal(t.Questions, &qs); err != nil {
		return nil
	}
	return qs
}

// Threshold 返回生效的及格线
func (t *Test) Threshold() int {
	if t.PassingScore > 0 {
		return t.PassingScore
	}
	return DefaultPassingScore
}

// SubjectKey 技能聚合使用的科目分组键。优先使用显式 Subject 字段；
// 旧数据没有该字段时退回标题首词，两者都没有时归入 General。
func (t *Test) SubjectKey() string {
	if t.Subject != "" {
		return t.Subject
	}
	if fields := strings.Fields(t.Title); len(fields) > 0 {
		return fields[0]
	}
	return "General"
}

// Answer 答案的带标签变体：选择题答案是选项下标，主观题答案是文本。
// 旧前端的提交格式是裸的 int 或 string，解码时两种都接受；
// 其它形状按"未作答"处理而不是报错。
type Answer struct {
	SelectedIndex *int    `json:"selectedIndex,omitempty"`
	Text          *string `json:"text,omitempty"`
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var idx int
	if err := json.Unmarshal(data, &idx); err == nil {
		a.SelectedIndex = &idx
		a.Text = nil
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		a.Text = &text
		a.SelectedIndex = nil
		return nil
	}
	// 非法形状视为未作答
	a.SelectedIndex = nil
	a.Text = nil
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.SelectedIndex != nil {
		return json.Marshal(*a.SelectedIndex)
	}
	if a.Text != nil {
		return json.Marshal(*a.Text)
	}
	return []byte("null"), nil
}

// AnswerSet 按题目下标索引的答案集合。JSON 键是字符串形式的下标，
// 非数字键在解码时被丢弃（按未作答处理）。
type AnswerSet map[int]Answer

func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	raw := map[string]Answer{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make(AnswerSet, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		result[idx] = v
	}
	*s = result
	return nil
}

func (s AnswerSet) MarshalJSON() ([]byte, error) {
	raw := make(map[string]Answer, len(s))
	for k, v := range s {
		raw[strconv.Itoa(k)] = v
	}
	return json.Marshal(raw)
}

// ObjectiveAnswer 便捷构造：选择题答案
func ObjectiveAnswer(idx int) Answer {
	return Answer{SelectedIndex: &idx}
}

// TextAnswer 便捷构造：文本答案
func TextAnswer(text string) Answer {
	return Answer{Text: &text}
}
