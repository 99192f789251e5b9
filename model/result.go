package model

// SegmentResult 分割结果
type SegmentResult struct {
	Key       string       `json:"key"`
	MD5       string       `json:"md5"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Scale     float64      `json:"scale"` // 处理时的缩放比例
	Seeds     SeedCount    `json:"seeds"`
	Colors    ColorSummary `json:"colors"`
	Layers    []Layer      `json:"layers"`
	Cutout    string       `json:"cutout,omitempty"` // base64编码的带透明通道PNG
	Timestamp int64        `json:"timestamp"`
}

// SeedCount 两类种子的数量
type SeedCount struct {
	Foreground int `json:"foreground"`
	Background int `json:"background"`
}

// ColorStats 某一类种子邻域内采样颜色的统计，通道顺序 R, G, B
type ColorStats struct {
	Samples  int        `json:"samples"`
	Distinct int        `json:"distinct"`
	Mean     [3]float64 `json:"mean"`
	Variance [3]float64 `json:"variance"`
}

// ColorSummary 两类种子的颜色统计
type ColorSummary struct {
	Foreground ColorStats `json:"foreground"`
	Background ColorStats `json:"background"`
}

// Layer 单个图层信息
type Layer struct {
	ID          int     `json:"id"`
	Type        string  `json:"type"` // foreground, background
	BoundingBox BBox    `json:"bounding_box"`
	Mask        string  `json:"mask"` // base64编码的mask数据
	Confidence  float64 `json:"confidence"`
}

// BBox 边界框
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SegmentResponse 分割响应
type SegmentResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *SegmentResult `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LiveMessage 实时会话推送给客户端的消息
type LiveMessage struct {
	Type       string         `json:"type"` // result, error, ready
	Generation uint64         `json:"generation"`
	Data       *SegmentResult `json:"data,omitempty"`
	Message    string         `json:"message,omitempty"`
	Code       string         `json:"code,omitempty"`
}
