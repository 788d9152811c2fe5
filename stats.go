package main

import (
	"fmt"
	"math"
)

// Stat 單一量測值的統計累加器 (最小/最大/平均/RSS)
type Stat struct {
	Name string

	Min        float64
	Max        float64
	MinAbs     float64
	MaxAbs     float64
	Sum        float64
	SumAbs     float64
	SumSquared float64
	Count      int
}

// NewStat 建立空的統計累加器
func NewStat(name string) *Stat {
	s := &Stat{Name: name}
	s.Clear()
	return s
}

// Add 加入一筆量測值
func (s *Stat) Add(value float64) {
	a := math.Abs(value)
	s.Min = math.Min(value, s.Min)
	s.Max = math.Max(value, s.Max)
	s.MinAbs = math.Min(a, s.MinAbs)
	s.MaxAbs = math.Max(a, s.MaxAbs)
	s.Sum += value
	s.SumAbs += a
	s.SumSquared += a * a
	s.Count++
}

// Merge 併入另一個累加器的統計
func (s *Stat) Merge(other *Stat) {
	s.Min = math.Min(other.Min, s.Min)
	s.Max = math.Max(other.Max, s.Max)
	s.MinAbs = math.Min(other.MinAbs, s.MinAbs)
	s.MaxAbs = math.Max(other.MaxAbs, s.MaxAbs)
	s.Sum += other.Sum
	s.SumAbs += other.SumAbs
	s.SumSquared += other.SumSquared
	s.Count += other.Count
}

// Clear 清除所有統計
func (s *Stat) Clear() {
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	s.MinAbs = math.Inf(1)
	s.MaxAbs = math.Inf(-1)
	s.Sum = 0
	s.SumAbs = 0
	s.SumSquared = 0
	s.Count = 0
}

// Mean 回傳平均值
func (s *Stat) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// MeanAbs 回傳絕對值平均
func (s *Stat) MeanAbs() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.SumAbs / float64(s.Count)
}

// MeanRSS 回傳平方和開根號的平均
func (s *Stat) MeanRSS() float64 {
	if s.Count == 0 {
		return 0
	}
	return math.Sqrt(s.SumSquared) / float64(s.Count)
}

// MinMeanMaxString 以 [min mean max] 格式輸出
func (s *Stat) MinMeanMaxString(format, units string) string {
	f := "[" + format + " " + format + " " + format + "] %s"
	return fmt.Sprintf(f, s.Min, s.Mean(), s.Max, units)
}
