package connector

// State 连接器状态
type State int

const (
	StateUnopened State = iota
	StateOpen
	StateSourceRegistered
	StateSensorRegistered
	StatePublishing
	StateClosing
	StateClosed
)

var stateNames = [...]string{
	StateUnopened:         "unopened",
	StateOpen:             "open",
	StateSourceRegistered: "source-registered",
	StateSensorRegistered: "sensor-registered",
	StatePublishing:       "publishing",
	StateClosing:          "closing",
	StateClosed:           "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Registered sensor 已注册（可以发送数据）
func (s State) Registered() bool {
	return s == StateSensorRegistered || s == StatePublishing
}
