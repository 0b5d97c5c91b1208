package model

// SkillNode 按科目聚合出的技能画像条目，仪表盘雷达图直接渲染。
// 即时计算，不落库。
type SkillNode struct {
	Subject   string `json:"subject"`
	Score     int    `json:"score"`     // 该科目所有已判分提交的平均分
	Benchmark int    `json:"benchmark"` // 参考基准，由外部提供
	FullMark  int    `json:"fullMark"`  // 恒为 100
}
