package service

import (
	"learnhub_backend/internal/model"
)

// ScoreTest 纯判分函数：同样的 (题目, 答案) 输入永远得到同样的输出，
// 不做 I/O，不看任何外部状态。
//
// 客观题（mcq 且题目列表非空）：逐题比较提交的选项下标与标准答案，
// 百分比用整数四舍五入（round half up），跨平台逐位一致。
// 题目列表为空或人工批改类型：0 分、submitted 状态，等待人工批改。
//
// 答案集合缺某题的下标按答错处理；多出的下标忽略；
// 给客观题提交文本答案也按答错处理。都不是错误。
func ScoreTest(test *model.Test, answers model.AnswerSet) (int, model.AttemptStatus) {
	questions := test.DecodeQuestions()

	if test.Type != model.TestMCQ || len(questions) == 0 {
		return 0, model.AttemptSubmitted
	}

	matches := 0
	for idx, q := range questions {
		if q.Kind != model.QuestionObjective || q.Correct == nil {
			continue
		}
		ans, ok := answers[idx]
		if !ok || ans.SelectedIndex == nil {
			continue
		}
		if *ans.SelectedIndex == *q.Correct {
			matches++
		}
	}

	return roundPercent(matches, len(questions)), model.AttemptGraded
}

// roundPercent = round(100 * matches / total)，整数算术实现 round half up
func roundPercent(matches, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*matches + total) / (2 * total)
}
