package imgx

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	return buf.Bytes()
}

func TestDecodeJPEG_RoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			src.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}

	img, err := DecodeJPEG(encodeJPEG(t, src))
	if err != nil {
		t.Fatalf("DecodeJPEG 失败：%v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("尺寸不符合预期：%dx%d", b.Dx(), b.Dy())
	}

	out, err := EncodeJPEG(img)
	if err != nil {
		t.Fatalf("EncodeJPEG 失败：%v", err)
	}
	got, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode 输出失败：%v", err)
	}
	if b := got.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("输出尺寸不符合预期：%dx%d", b.Dx(), b.Dy())
	}
}

func TestDecodeJPEG_Invalid(t *testing.T) {
	if _, err := DecodeJPEG(nil); err == nil {
		t.Fatalf("期望空输入返回错误")
	}
	if _, err := DecodeJPEG([]byte("not a jpeg")); err == nil {
		t.Fatalf("期望垃圾输入返回错误")
	}
}

func TestApplyOrientation_Dimensions(t *testing.T) {
	// 10x20 的竖条：90° 族的方向要交换宽高，其余保持。
	src := image.NewRGBA(image.Rect(0, 0, 10, 20))

	cases := []struct {
		orientation uint16
		w, h        int
	}{
		{0, 10, 20},
		{1, 10, 20},
		{2, 10, 20},
		{3, 10, 20},
		{4, 10, 20},
		{5, 20, 10},
		{6, 20, 10},
		{7, 20, 10},
		{8, 20, 10},
	}
	for _, c := range cases {
		got := ApplyOrientation(src, c.orientation)
		b := got.Bounds()
		if b.Dx() != c.w || b.Dy() != c.h {
			t.Fatalf("方向 %d：尺寸 %dx%d，期望 %dx%d", c.orientation, b.Dx(), b.Dy(), c.w, c.h)
		}
	}
}

func TestApplyOrientation_PixelMoves(t *testing.T) {
	// 左红右蓝的 2x1 图：水平镜像（方向 2）后左侧应变蓝。
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{255, 0, 0, 255})
	src.Set(1, 0, color.RGBA{0, 0, 255, 255})

	got := ApplyOrientation(src, 2)
	c := got.NRGBAAt(0, 0)
	if c.B < 200 || c.R > 50 {
		t.Fatalf("镜像后左侧像素=%v（期望接近蓝色）", c)
	}

	// 方向 6（需顺时针 90°）：原左上角应落到转正结果的右上角。
	tall := image.NewRGBA(image.Rect(0, 0, 1, 2))
	tall.Set(0, 0, color.RGBA{255, 0, 0, 255})
	tall.Set(0, 1, color.RGBA{0, 0, 255, 255})

	got = ApplyOrientation(tall, 6)
	if b := got.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Fatalf("尺寸不符合预期：%dx%d", b.Dx(), b.Dy())
	}
	c = got.NRGBAAt(1, 0)
	if c.R < 200 || c.B > 50 {
		t.Fatalf("转正后右上角像素=%v（期望接近红色）", c)
	}
}

func TestApplyOrientation_DoesNotMutateInput(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{255, 0, 0, 255})

	_ = ApplyOrientation(src, 3)

	if c := src.RGBAAt(0, 0); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Fatalf("输入图被修改：%v", c)
	}
}
