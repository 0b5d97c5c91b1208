package database

import (
	"encoding/json"
	"fmt"
	"log"

	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseEnrollment{},
		&model.Test{},
		&model.TestResult{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedDemoData(db)

	return db, nil
}

func intPtr(v int) *int { return &v }

// seedDemoData 课程表为空时插入演示课程和测试，方便本地起服务后直接能提交
func seedDemoData(db *gorm.DB) {
	var count int64
	db.Model(&model.Course{}).Count(&count)
	if count > 0 {
		return
	}

	demoCourses := []struct {
		course model.Course
		tests  []model.Test
	}{
		{
			course: model.Course{
				Title:       "Coding Foundations",
				Description: "变量、控制流、函数与基本数据结构",
				Subject:     "Coding",
			},
			tests: []model.Test{
				{
					Title:        "Coding Basics Quiz",
					Subject:      "Coding",
					Type:         model.TestMCQ,
					PassingScore: 70,
					Questions: mustJSON([]model.Question{
						{Kind: model.QuestionObjective, Prompt: "哪个关键字声明常量？", Options: []string{"var", "const", "let", "def"}, Correct: intPtr(1)},
						{Kind: model.QuestionObjective, Prompt: "数组下标从几开始？", Options: []string{"0", "1", "-1", "视语言而定"}, Correct: intPtr(0)},
						{Kind: model.QuestionObjective, Prompt: "哪种结构先进先出？", Options: []string{"栈", "堆", "队列", "树"}, Correct: intPtr(2)},
						{Kind: model.QuestionObjective, Prompt: "二分查找的前提？", Options: []string{"链表存储", "数据有序", "元素互异", "长度为偶数"}, Correct: intPtr(1)},
					}),
				},
			},
		},
		{
			course: model.Course{
				Title:       "Design Thinking",
				Description: "从用户场景出发的产品设计入门",
				Subject:     "Design",
			},
			tests: []model.Test{
				{
					Title:   "Design Reflection",
					Subject: "Design",
					Type:    model.TestManual,
					Questions: mustJSON([]model.Question{
						{Kind: model.QuestionManual, Prompt: "描述一次你改进既有产品体验的思路。"},
					}),
				},
			},
		},
	}

	for _, dc := range demoCourses {
		course := dc.course
		if err := db.Create(&course).Error; err != nil {
			continue
		}
		for _, t := range dc.tests {
			t.CourseID = course.ID
			db.Create(&t)
		}
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
