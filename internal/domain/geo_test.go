package domain

import (
	"math"
	"testing"
)

func TestGeoCoordinate_Validate(t *testing.T) {
	cases := []struct {
		name     string
		g        GeoCoordinate
		wantAxis string // "" 表示合法
	}{
		{"首尔", GeoCoordinate{Lat: 37.5665, Lon: 126.9780}, ""},
		{"边界值", GeoCoordinate{Lat: -90, Lon: 180}, ""},
		{"纬度越界", GeoCoordinate{Lat: 90.0001, Lon: 0}, "lat"},
		{"经度越界", GeoCoordinate{Lat: 0, Lon: -180.5}, "lon"},
		{"NaN", GeoCoordinate{Lat: math.NaN(), Lon: 0}, "lat"},
	}

	for _, c := range cases {
		err := c.g.Validate()
		if c.wantAxis == "" {
			if err != nil {
				t.Fatalf("%s：不期望错误：%v", c.name, err)
			}
			continue
		}
		if !IsInvalidCoordinate(err) {
			t.Fatalf("%s：期望 InvalidCoordinateError，实际 %T %v", c.name, err, err)
		}
	}
}

func TestGeoCoordinate_DMSRefsAndMagnitude(t *testing.T) {
	g := GeoCoordinate{Lat: -33.8688, Lon: 151.2093} // 悉尼：南纬东经

	lat := g.LatDMS()
	lon := g.LonDMS()

	if lat.Ref != 'S' || lon.Ref != 'E' {
		t.Fatalf("半球字母错误：lat=%c lon=%c", lat.Ref, lon.Ref)
	}
	// 数值部分必须是无符号的（符号只体现在 Ref 上）。
	if lat.Degrees != 33 || lat.Minutes < 0 || lat.Seconds < 0 {
		t.Fatalf("纬度分解应为非负：%+v", lat)
	}
	if lon.Degrees != 151 {
		t.Fatalf("经度整数度错误：%+v", lon)
	}
}

func TestDMS_DecimalRoundTrip(t *testing.T) {
	cases := []GeoCoordinate{
		{Lat: 37.5665, Lon: 126.9780},
		{Lat: -0.0005, Lon: 0.0005},
		{Lat: 89.9999, Lon: -179.9999},
	}
	for _, g := range cases {
		if d := g.LatDMS().Decimal(); math.Abs(d-g.Lat) > 1e-9 {
			t.Fatalf("纬度往返误差过大：%v -> %v", g.Lat, d)
		}
		if d := g.LonDMS().Decimal(); math.Abs(d-g.Lon) > 1e-9 {
			t.Fatalf("经度往返误差过大：%v -> %v", g.Lon, d)
		}
	}
}
