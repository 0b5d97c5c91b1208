package model

import (
	"encoding/json"
	"time"
)

type AttemptStatus string

const (
	// AttemptSubmitted 已提交，等待人工批改
	AttemptSubmitted AttemptStatus = "submitted"
	// AttemptGraded 已自动判分
	AttemptGraded AttemptStatus = "graded"
)

// TestResult 一次提交的持久记录。每次提交都新增一行，
// 判分在落库之前完成，记录创建后不再修改。
type TestResult struct {
	UUIDBase
	TestID      uint            `gorm:"index;type:bigint unsigned" json:"testId"`
	UserID      uint            `gorm:"index;type:bigint unsigned" json:"userId"`
	Answers     json.RawMessage `gorm:"type:json" json:"answers"`
	Score       *int            `json:"score"` // 判分前为空
	Status      AttemptStatus   `gorm:"size:20;default:'submitted'" json:"status"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

func (TestResult) TableName() string {
	return "test_results"
}
