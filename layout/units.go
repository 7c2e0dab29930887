package layout

import (
	"strconv"
	"strings"
)

// Unit 记录 style 中书写的长度单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位数字（倍数）
	UnitMM
	UnitCM
	UnitIN
	UnitPT
	UnitPX      // CSS 像素，1/96 in
	UnitEM      // 相对当前字号
	UnitPercent // 相对包含块
)

const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToMm = 25.4 / 96
)

// unitTable 按后缀匹配顺序排列；mm 为 0 表示相对单位。
var unitTable = []struct {
	suffix string
	unit   Unit
	mm     float64
}{
	{"mm", UnitMM, 1},
	{"cm", UnitCM, 10},
	{"in", UnitIN, 25.4},
	{"pt", UnitPT, PtToMm},
	{"px", UnitPX, PxToMm},
	{"em", UnitEM, 0},
	{"%", UnitPercent, 0},
}

func (u Unit) String() string {
	for _, e := range unitTable {
		if e.unit == u {
			return e.suffix
		}
	}
	return ""
}

// Length 是带单位的数值。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// IsRelative 报告是否需要参照值（字号或包含块宽度）才能换算。
func (l Length) IsRelative() bool { return l.Unit == UnitEM || l.Unit == UnitPercent }

// ToMM 换算为毫米。无单位与相对单位原样返回数值。
func (l Length) ToMM() float64 {
	for _, e := range unitTable {
		if e.unit == l.Unit && e.mm > 0 {
			return l.Value * e.mm
		}
	}
	return l.Value
}

// ToPT 换算为点；pt 本身不经过 mm 以免引入误差。
func (l Length) ToPT() float64 {
	if l.Unit == UnitPT {
		return l.Value
	}
	return l.ToMM() * MmToPt
}

// Resolve 返回毫米值：em 相对 fontSize，% 相对 reference（均为 mm）。
func (l Length) Resolve(fontSize, reference float64) float64 {
	switch l.Unit {
	case UnitEM:
		return l.Value * fontSize
	case UnitPercent:
		return reference * l.Value / 100
	}
	return l.ToMM()
}

// ParseLength 解析 "12pt"、"50%"、"1.5" 之类的 CSS 长度，保留原单位。
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	l := Length{Unit: UnitNone}
	for _, e := range unitTable {
		if num, ok := strings.CutSuffix(v, e.suffix); ok {
			v, l.Unit = strings.TrimSpace(num), e.unit
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, false
	}
	l.Value = f
	return l, true
}

type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec 是倍数（1.2）或绝对长度（18pt）形式的行高。
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

const normalLineHeight = 1.4

// ParseLineHeight 接受 "normal"、倍数（"1.4"、"1.4x"、"140%"、"1.4em"）与绝对长度。
func ParseLineHeight(value string) (LineHeightSpec, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "normal" {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: normalLineHeight}, true
	}
	if !strings.HasSuffix(v, "px") {
		v = strings.TrimSuffix(v, "x")
	}
	l, ok := ParseLength(v)
	if !ok || l.Value <= 0 {
		return LineHeightSpec{}, false
	}
	switch l.Unit {
	case UnitNone, UnitEM:
		return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value}, true
	case UnitPercent:
		return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value / 100}, true
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, true
}

// Resolve 以 fontSize 为基准计算行高，target 为 UnitMM 或 UnitPT。
func (s LineHeightSpec) Resolve(fontSize Length, target Unit) float64 {
	convert := Length.ToMM
	if target == UnitPT {
		convert = Length.ToPT
	}
	if s.Kind == LineHeightAbsolute {
		return convert(s.Len)
	}
	factor := s.Factor
	if factor <= 0 {
		factor = normalLineHeight
	}
	return convert(fontSize) * factor
}
