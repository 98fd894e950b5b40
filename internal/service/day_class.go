package service

// DayClass 表示单个日期在连胜计算中的归类，五种状态互斥。
type DayClass int

const (
	// DayEmpty 当天既无产出也无休息日标记
	DayEmpty DayClass = iota
	// DayActive 当天至少有一条 done 产出
	DayActive
	// DayRestEarned 当天标记了休息日且创建时已挣得
	DayRestEarned
	// DayRestUnearned 当天标记了休息日但创建时未挣得
	DayRestUnearned
	// DaySkippedOnly 当天只有 skipped 产出，没有 done
	DaySkippedOnly
)

// String 便于测试输出与日志排查。
func (c DayClass) String() string {
	switch c {
	case DayActive:
		return "active"
	case DayRestEarned:
		return "rest_earned"
	case DayRestUnearned:
		return "rest_unearned"
	case DaySkippedOnly:
		return "skipped_only"
	default:
		return "empty"
	}
}

// DayFacts 是分类器的输入：由调用方按日期汇总出的原始事实。
type DayFacts struct {
	HasActive   bool
	SkippedOnly bool
	IsRest      bool
	RestEarned  bool
}

// dayRule 表示一条先匹配先生效的归类规则。
type dayRule struct {
	match func(DayFacts) bool
	class DayClass
}

// 规则按优先级排列：Active 压过休息日和 skipped。
// 调整顺序会直接改变连胜语义，新增规则务必补充分类器测试。
var dayRules = []dayRule{
	{func(f DayFacts) bool { return f.HasActive }, DayActive},
	{func(f DayFacts) bool { return f.IsRest && f.RestEarned }, DayRestEarned},
	{func(f DayFacts) bool { return f.IsRest }, DayRestUnearned},
	{func(f DayFacts) bool { return f.SkippedOnly }, DaySkippedOnly},
}

// ClassifyDay 按规则表给单个日期归类，无规则命中时返回 DayEmpty。
func ClassifyDay(facts DayFacts) DayClass {
	for _, rule := range dayRules {
		if rule.match(facts) {
			return rule.class
		}
	}
	return DayEmpty
}
