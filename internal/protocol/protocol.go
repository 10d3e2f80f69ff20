// Package protocol 定义驱动与 collector 之间的文本协议：
// 每条消息为一行、以空格分隔的 ASCII 文本，边界由数据报本身决定。
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Verb 协议动词
type Verb string

const (
	VerbRegSource   Verb = "REG_SOURCE"
	VerbRegSensor   Verb = "REG_SENSOR"
	VerbData        Verb = "DATA"
	VerbUnregSensor Verb = "UNREG_SENSOR"
	VerbUnregSource Verb = "UNREG_SOURCE"
)

// Unregistered 未注册标识（哨兵值）
const Unregistered = -1

// ErrMalformedResponse 注册应答不是合法整数（仅严格模式返回）
var ErrMalformedResponse = errors.New("malformed registration response")

func (v Verb) String() string { return string(v) }

// RegSource REG_SOURCE <name>
func RegSource(name string) string {
	return fmt.Sprintf("%s %s", VerbRegSource, name)
}

// RegSensor REG_SENSOR <source_id> <type> <name>
func RegSensor(sourceID int, sensorType, name string) string {
	return fmt.Sprintf("%s %d %s %s", VerbRegSensor, sourceID, sensorType, name)
}

// Data DATA <source_id> <sensor_id> <value:%.2f>
func Data(sourceID, sensorID int, value float64) string {
	return fmt.Sprintf("%s %d %d %.2f", VerbData, sourceID, sensorID, value)
}

// UnregSensor UNREG_SENSOR <source_id> <sensor_id>
func UnregSensor(sourceID, sensorID int) string {
	return fmt.Sprintf("%s %d %d", VerbUnregSensor, sourceID, sensorID)
}

// UnregSource UNREG_SOURCE <source_id>
func UnregSource(sourceID int) string {
	return fmt.Sprintf("%s %d", VerbUnregSource, sourceID)
}

// VerbOf 返回消息的动词（第一个 token）
func VerbOf(msg string) Verb {
	head, _, _ := strings.Cut(msg, " ")
	return Verb(head)
}

// ValidToken 名称/类型不能为空，且不能包含空白（否则破坏空格分隔的格式）
func ValidToken(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, unicode.IsSpace) < 0
}

// ParseID 按 atoi 语义解析注册应答：跳过前导空白，可选符号，取最长数字前缀。
// 无法解析时得到 0，与合法分配的 0 无法区分。
// ok 表示整段应答（去掉首尾空白后）是否为一个干净的整数。
func ParseID(resp string) (id int, ok bool) {
	s := strings.TrimLeftFunc(resp, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// 溢出
		return 0, false
	}
	return n, strings.TrimSpace(s[end:]) == ""
}

// ParseIDStrict 应答必须是一个完整整数
func ParseIDStrict(resp string) (int, error) {
	id, ok := ParseID(resp)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformedResponse, resp)
	}
	return id, nil
}
