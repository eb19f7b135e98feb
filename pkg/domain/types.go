package domain

type TargetID string
type RequestID string

// EventType 拦截事件类型
type EventType string

const (
	EventStarted   EventType = "started"
	EventServed    EventType = "served"
	EventForwarded EventType = "forwarded"
	EventFinished  EventType = "finished"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// InterceptEvent 单个拦截请求的生命周期事件
type InterceptEvent struct {
	Type       EventType `json:"type"`
	Target     TargetID  `json:"target"`
	RequestID  RequestID `json:"requestId"`
	URL        string    `json:"url"`
	Method     string    `json:"method"`
	Handler    string    `json:"handler"`
	StatusCode int       `json:"statusCode"`
	Fallback   bool      `json:"fallback"`
	Error      string    `json:"error"`
	Timestamp  int64     `json:"timestamp"`
}

type TargetInfo struct {
	ID        TargetID `json:"id"`
	Type      string   `json:"type"`
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	IsCurrent bool     `json:"isCurrent"`
	IsUser    bool     `json:"isUser"`
}

// Stats 调度器运行统计
type Stats struct {
	Outstanding int   `json:"outstanding"`
	Started     int64 `json:"started"`
	Finished    int64 `json:"finished"`
	Failed      int64 `json:"failed"`
	Cancelled   int64 `json:"cancelled"`
}
