package source

import (
	"bufio"
	"fmt"

	"github.com/spf13/afero"

	"github.com/asgard-driver/internal/protocol"
)

// Thermal 读取 sysfs 温度文件（单位：毫摄氏度）
type Thermal struct {
	fs   afero.Fs
	path string
}

func NewThermal(fs afero.Fs, path string) *Thermal {
	return &Thermal{fs: fs, path: path}
}

func (t *Thermal) Name() string { return KindThermal }

// Init 文件缺失不算初始化失败，读取时按 0 处理
func (t *Thermal) Init() error { return nil }

// Read 取第一行按 atoi 解析后除以 1000。
// 文件不可读时返回 0 和错误，调用方仍会发送该值。
func (t *Thermal) Read() (float64, error) {
	f, err := t.fs.Open(t.path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var line string
	if sc.Scan() {
		line = sc.Text()
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("read %s: %w", t.path, err)
	}
	milli, _ := protocol.ParseID(line)
	return float64(milli) / 1000, nil
}

func (t *Thermal) Close() error { return nil }
