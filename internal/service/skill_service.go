package service

import (
	"context"
	"sort"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
)

// DefaultBenchmark 外部基准缺失时的兜底值
const DefaultBenchmark = 75

// BenchmarkProvider 按科目提供参考基准。基准由外部协作方计算
// （班级均分、全站均分等），本服务不负责。
type BenchmarkProvider interface {
	Benchmark(subject string) int
}

// StaticBenchmarks 固定基准表，查不到的科目用 DefaultBenchmark
type StaticBenchmarks map[string]int

func (b StaticBenchmarks) Benchmark(subject string) int {
	if v, ok := b[subject]; ok {
		return v
	}
	return DefaultBenchmark
}

// defaultProfile 学员没有任何已判分提交时返回的占位画像
func defaultProfile() []model.SkillNode {
	return []model.SkillNode{
		{Subject: "Coding", Score: 0, Benchmark: 60, FullMark: 100},
		{Subject: "Design", Score: 0, Benchmark: 70, FullMark: 100},
		{Subject: "Communication", Score: 0, Benchmark: 80, FullMark: 100},
		{Subject: "Leadership", Score: 0, Benchmark: 50, FullMark: 100},
	}
}

// SkillService 读侧技能聚合：扫描学员的已判分提交，按科目求均分。
// 与写路径完全独立。
type SkillService struct {
	AttemptRepo *repository.AttemptRepository
	TestRepo    *repository.TestRepository
	Benchmarks  BenchmarkProvider
	Cache       *SkillCache
}

func NewSkillService(
	attemptRepo *repository.AttemptRepository,
	testRepo *repository.TestRepository,
	benchmarks BenchmarkProvider,
	cache *SkillCache,
) *SkillService {
	if benchmarks == nil {
		benchmarks = StaticBenchmarks{}
	}
	return &SkillService{
		AttemptRepo: attemptRepo,
		TestRepo:    testRepo,
		Benchmarks:  benchmarks,
		Cache:       cache,
	}
}

// Aggregate 计算学员的按科目技能画像。科目键来自测试的 Subject 字段
// （旧数据退回标题首词），均分用整数四舍五入，条目按科目名排序保证
// 输出确定。没有已判分提交时返回固定的占位画像。
func (s *SkillService) Aggregate(ctx context.Context, userID uint) ([]model.SkillNode, error) {
	if nodes, ok := s.Cache.Get(ctx, userID); ok {
		return nodes, nil
	}

	attempts, err := s.AttemptRepo.ListGradedByUser(userID)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sum   int
		count int
	}
	buckets := map[string]*bucket{}
	// 同一学员的多次提交常指向同一测试，缓存定义避免重复读
	tests := map[uint]*model.Test{}

	for _, attempt := range attempts {
		if attempt.Score == nil {
			continue
		}
		test, ok := tests[attempt.TestID]
		if !ok {
			test, err = s.TestRepo.FindByID(attempt.TestID)
			if err != nil {
				// 测试定义被删掉的存量提交跳过，不让画像整体失败
				tests[attempt.TestID] = nil
				continue
			}
			tests[attempt.TestID] = test
		}
		if test == nil {
			continue
		}
		subject := test.SubjectKey()
		b, ok := buckets[subject]
		if !ok {
			b = &bucket{}
			buckets[subject] = b
		}
		b.sum += *attempt.Score
		b.count++
	}

	if len(buckets) == 0 {
		return defaultProfile(), nil
	}

	nodes := make([]model.SkillNode, 0, len(buckets))
	for subject, b := range buckets {
		nodes = append(nodes, model.SkillNode{
			Subject:   subject,
			Score:     roundMean(b.sum, b.count),
			Benchmark: s.Benchmarks.Benchmark(subject),
			FullMark:  100,
		})
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Subject < nodes[j].Subject
	})

	s.Cache.Set(ctx, userID, nodes)
	return nodes, nil
}

// roundMean = round(sum / count)，整数算术 round half up
func roundMean(sum, count int) int {
	if count <= 0 {
		return 0
	}
	return (2*sum + count) / (2 * count)
}
