package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/John-Robertt/FEDS/internal/app/run"
	"github.com/John-Robertt/FEDS/internal/config"
	"github.com/John-Robertt/FEDS/internal/domain"
	"github.com/John-Robertt/FEDS/internal/profile"
	"github.com/John-Robertt/FEDS/internal/scan"
)

// version 经 -ldflags "-X main.version=..." 注入；裸构建标记为 dev。
var version = "dev"

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	var code int
	switch args[0] {
	case "run":
		code = runCmd(args[1:])
	case "preview":
		code = previewCmd(args[1:])
	case "profile":
		code = profileCmd(args[1:])
	case "version":
		fmt.Fprintf(os.Stdout, "feds %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func runCmd(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.SortFlags = false

	date := fs.String("date", "", "拍摄日期 YYYY-MM-DD（必填）")
	clock := fs.String("time", config.DefaultStartClock, "首张照片的起始时刻 HH:MM")
	camera := fs.String("camera", "", "相机文本（与镜头拼入 UserComment）")
	lens := fs.String("lens", "", "镜头文本（与相机拼入 UserComment）")
	film := fs.String("film", "", "胶片文本（写入 ImageDescription）")
	lat := fs.Float64("lat", 0, "纬度，与 --lon 成对")
	lon := fs.Float64("lon", 0, "经度，与 --lat 成对")
	profilePath := fs.String("profile", "", "相机档案 JSON 文件（显式参数优先于档案）")
	profileDir := fs.String("profile-dir", "", "相机档案目录，取最近改动的一份")
	stampOn := fs.Bool("stamp", false, "冲印模式：烧入日期印并另存为新文件")
	outDir := fs.String("out", "", "冲印输出目录（--stamp 必填，目录须已存在）")
	fontPath := fs.String("font", "", "日期印字体 TTF；缺省依次尝试内置与系统字体")
	fontRatio := fs.Float64("font-ratio", domain.DefaultFontRatio, "字号与图片短边之比，范围 (0, 0.5]")
	blur := fs.Float64("blur", domain.DefaultBlurStrength, "光晕强度，0 关闭")
	offsetX := fs.Int("offset-x", domain.DefaultOffsetX, "水平偏移，负值向左收")
	offsetY := fs.Int("offset-y", domain.DefaultOffsetY, "垂直偏移，负值向上收")
	format := fs.String("format", domain.StampFormatQuoteYY, "日期印模板：quote-yy 或 yyyy")
	ignoreErrors := fs.Bool("ignore-errors", false, "单张失败后继续处理其余文件")
	verbose := fs.Bool("verbose", false, "输出调试日志到 stderr")

	fs.Usage = func() { printFlagUsage("feds run [参数] <路径>...", fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "参数错误：至少给出一个文件或目录")
		fs.Usage()
		return 2
	}

	files, err := scan.Expand(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n", err)
		return 2
	}
	if len(files) == 0 {
		logrus.Warn("没有找到可处理的 JPEG 文件")
	}

	eff, err := config.LoadEffective(config.CLIArgs{
		Date:  *date,
		Clock: *clock,

		Camera:    *camera,
		CameraSet: fs.Changed("camera"),
		Lens:      *lens,
		LensSet:   fs.Changed("lens"),
		Film:      *film,
		FilmSet:   fs.Changed("film"),

		Lat:    *lat,
		LatSet: fs.Changed("lat"),
		Lon:    *lon,
		LonSet: fs.Changed("lon"),

		ProfilePath: *profilePath,
		ProfileDir:  *profileDir,

		Stamp:  *stampOn,
		OutDir: *outDir,

		FontPath:     *fontPath,
		FontRatio:    *fontRatio,
		FontRatioSet: fs.Changed("font-ratio"),
		Blur:         *blur,
		BlurSet:      fs.Changed("blur"),
		OffsetX:      *offsetX,
		OffsetXSet:   fs.Changed("offset-x"),
		OffsetY:      *offsetY,
		OffsetYSet:   fs.Changed("offset-y"),
		Format:       *format,

		IgnoreErrors: *ignoreErrors,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误：%v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW, *fontPath)
	} else {
		obs = logObserver{requestedFont: *fontPath}
	}

	rr := run.Execute(ctx, eff, files, obs)

	emitReport(rr)
	if rr.Summary.Failed > 0 || rr.Aborted {
		return 1
	}
	return 0
}

func previewCmd(args []string) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.SortFlags = false

	date := fs.String("date", "", "拍摄日期 YYYY-MM-DD（必填）")
	clock := fs.String("time", config.DefaultStartClock, "起始时刻 HH:MM")
	fontPath := fs.String("font", "", "日期印字体 TTF")
	fontRatio := fs.Float64("font-ratio", domain.DefaultFontRatio, "字号与图片短边之比")
	blur := fs.Float64("blur", domain.DefaultBlurStrength, "光晕强度，0 关闭")
	offsetX := fs.Int("offset-x", domain.DefaultOffsetX, "水平偏移")
	offsetY := fs.Int("offset-y", domain.DefaultOffsetY, "垂直偏移")
	format := fs.String("format", domain.StampFormatQuoteYY, "日期印模板：quote-yy 或 yyyy")
	verbose := fs.Bool("verbose", false, "输出调试日志到 stderr")

	fs.Usage = func() { printFlagUsage("feds preview [参数] <文件>", fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "参数错误：preview 只接受一个文件")
		fs.Usage()
		return 2
	}

	// 预览不落盘，走补丁模式的配置校验即可（角标参数照常合并）。
	eff, err := config.LoadEffective(config.CLIArgs{
		Date:         *date,
		Clock:        *clock,
		FontPath:     *fontPath,
		FontRatio:    *fontRatio,
		FontRatioSet: fs.Changed("font-ratio"),
		Blur:         *blur,
		BlurSet:      fs.Changed("blur"),
		OffsetX:      *offsetX,
		OffsetXSet:   fs.Changed("offset-x"),
		OffsetY:      *offsetY,
		OffsetYSet:   fs.Changed("offset-y"),
		Format:       *format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误：%v\n", err)
		return 2
	}

	pv, err := run.Preview(eff, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "预览失败：%v\n", err)
		return 1
	}

	// stdout 被重定向时输出 JPEG 本体，方便 `feds preview ... > p.jpg`；
	// 人读的信息一律走 stderr。
	if !isTTY(os.Stdout) {
		_, _ = os.Stdout.Write(pv.JPEG)
	} else {
		fmt.Fprintln(os.Stderr, "提示：重定向 stdout 可保存预览图，例如 feds preview ... > preview.jpg")
	}
	fmt.Fprintf(os.Stderr, "尺寸: %dx%d\n", pv.Width, pv.Height)
	fmt.Fprintf(os.Stderr, "字体: %s\n", pv.Tier)
	fmt.Fprintf(os.Stderr, "文字: %s\n", pv.Text)
	return 0
}

func profileCmd(args []string) int {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.SortFlags = false

	dir := fs.String("dir", "", "档案目录（必填）")
	camera := fs.String("camera", "", "相机文本")
	lens := fs.String("lens", "", "镜头文本")
	film := fs.String("film", "", "胶片文本")

	fs.Usage = func() { printFlagUsage("feds profile [参数]", fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*dir) == "" {
		fmt.Fprintln(os.Stderr, "参数错误：--dir 不能为空")
		fs.Usage()
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "参数错误：多余的参数 %q\n", fs.Args())
		return 2
	}

	st := profile.NewStore(*dir)

	// 给了任一字段就是保存；都没给就是查看最近一份。
	if fs.Changed("camera") || fs.Changed("lens") || fs.Changed("film") {
		path, err := st.Save(profile.Profile{Camera: *camera, Lens: *lens, Film: *film})
		if err != nil {
			fmt.Fprintf(os.Stderr, "保存档案失败：%v\n", err)
			return 1
		}
		fmt.Fprintln(os.Stdout, path)
		return 0
	}

	p, path, ok, err := st.Latest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取档案失败：%v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "目录里没有档案：%q\n", *dir)
		return 1
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "序列化档案失败：%v\n", err)
		return 1
	}
	fmt.Fprintln(os.Stdout, string(b))
	fmt.Fprintf(os.Stderr, "来自 %s\n", path)
	return 0
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  feds run [参数] <路径>...
  feds preview [参数] <文件>
  feds profile [参数]
  feds version

命令：
  run      批量写入拍摄时间与元数据（默认就地补丁；--stamp 冲印到新文件）
  preview  在内存中渲染一张日期印预览，不落盘
  profile  保存或查看相机档案
  version  输出版本号

使用 "feds <命令> --help" 查看详细参数。
`)
}

func printFlagUsage(line string, fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "用法：\n  %s\n\n参数：\n%s", line, fs.FlagUsages())
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：written=%d failed=%d skipped=%d\n",
			rr.Summary.Written, rr.Summary.Failed, rr.Summary.Skipped,
		)
		if rr.Aborted {
			fmt.Fprintln(os.Stderr, "运行中止：部分文件未处理")
		}
		if rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusFailed {
					continue
				}
				key := it.Src
				if key == "" {
					// 字体等运行级失败的合成条目没有对应文件。
					key = "<run>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：written=%d failed=%d skipped=%d\n",
		rr.Summary.Written, rr.Summary.Failed, rr.Summary.Skipped,
	)
	if rr.Aborted {
		fmt.Fprintln(os.Stderr, "运行中止：部分文件未处理")
	}
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
