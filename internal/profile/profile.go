// Package profile 管理相机档案：一卷胶片拍摄期间固定不变的元数据预设。
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/John-Robertt/FEDS/internal/infra/fsx"
)

// Profile 是档案文件的内容。JSON 字段名与既有档案保持兼容，别改。
type Profile struct {
	Camera string `json:"camera_model"`
	Lens   string `json:"lens"`
	Film   string `json:"film,omitempty"`
}

func (p Profile) Empty() bool {
	return p.Camera == "" && p.Lens == "" && p.Film == ""
}

// Load 读取单个档案文件。
// 档案可能由旧版本或手工编辑产生：多余字段忽略，缺失字段按空处理。
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}

	if !gjson.ValidBytes(data) {
		return Profile{}, fmt.Errorf("档案不是合法 JSON：%q", path)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Profile{}, fmt.Errorf("档案顶层不是对象：%q", path)
	}

	return Profile{
		Camera: root.Get("camera_model").String(),
		Lens:   root.Get("lens").String(),
		Film:   root.Get("film").String(),
	}, nil
}

// Store 提供档案目录的读写。
type Store struct {
	Dir string
}

func NewStore(dir string) Store {
	return Store{Dir: filepath.Clean(strings.TrimSpace(dir))}
}

// Save 把档案写进目录，文件名由相机与镜头派生。返回写入路径。
func (s Store) Save(p Profile) (string, error) {
	if p.Empty() {
		return "", fmt.Errorf("空档案没有保存的意义")
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}

	name := fileName(p)
	if err := fsx.WriteFileAtomicReplace(s.Dir, name, data); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, name), nil
}

// Latest 返回目录里最近改动的档案。
// 目录缺失或没有任何档案时 ok=false，不算错误（新机器第一次跑是常态）。
func (s Store) Latest() (Profile, string, bool, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Profile{}, "", false, nil
		}
		return Profile{}, "", false, err
	}

	var (
		bestPath string
		bestMod  time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if bestPath == "" || info.ModTime().After(bestMod) {
			bestPath = filepath.Join(s.Dir, e.Name())
			bestMod = info.ModTime()
		}
	}
	if bestPath == "" {
		return Profile{}, "", false, nil
	}

	p, err := Load(bestPath)
	if err != nil {
		return Profile{}, "", false, err
	}
	return p, bestPath, true, nil
}

var unsafeNameRE = regexp.MustCompile(`[\\/:*?"<>|]`)

// fileName 从相机/镜头拼出可读文件名；清掉路径分隔符等不安全字符。
func fileName(p Profile) string {
	parts := make([]string, 0, 2)
	if p.Camera != "" {
		parts = append(parts, p.Camera)
	}
	if p.Lens != "" {
		parts = append(parts, p.Lens)
	}
	name := strings.Join(parts, " - ")
	name = unsafeNameRE.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "profile"
	}
	return name + ".json"
}
