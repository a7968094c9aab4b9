package domain

import (
	"errors"
	"fmt"
	"math"
)

// GeoCoordinate 是十进制度的经纬度对。
//
// 约束：
// - Lat ∈ [-90, 90]，Lon ∈ [-180, 180]
// - 写入 EXIF 时分解为 度/分/秒 三个无符号有理数；符号只决定半球字母
type GeoCoordinate struct {
	Lat float64
	Lon float64
}

// InvalidCoordinateError 表示经纬度越界（或非有限值）。
type InvalidCoordinateError struct {
	Axis  string // "lat" | "lon"
	Value float64
}

func (e *InvalidCoordinateError) Error() string {
	limit := 90.0
	if e.Axis == "lon" {
		limit = 180.0
	}
	return fmt.Sprintf("%s 越界：%v（允许范围 ±%v）", e.Axis, e.Value, limit)
}

func IsInvalidCoordinate(err error) bool {
	var e *InvalidCoordinateError
	return errors.As(err, &e)
}

func (g GeoCoordinate) Validate() error {
	if math.IsNaN(g.Lat) || g.Lat < -90 || g.Lat > 90 {
		return &InvalidCoordinateError{Axis: "lat", Value: g.Lat}
	}
	if math.IsNaN(g.Lon) || g.Lon < -180 || g.Lon > 180 {
		return &InvalidCoordinateError{Axis: "lon", Value: g.Lon}
	}
	return nil
}

// DMS 是单轴的 度/分/秒 分解（全部非负），Ref 为半球字母。
type DMS struct {
	Degrees int
	Minutes int
	Seconds float64
	Ref     byte // 'N'/'S'/'E'/'W'
}

func (g GeoCoordinate) LatDMS() DMS { return toDMS(g.Lat, 'N', 'S') }
func (g GeoCoordinate) LonDMS() DMS { return toDMS(g.Lon, 'E', 'W') }

// Decimal 还原十进制度（符号由 Ref 决定）。
func (d DMS) Decimal() float64 {
	v := float64(d.Degrees) + float64(d.Minutes)/60 + d.Seconds/3600
	if d.Ref == 'S' || d.Ref == 'W' {
		return -v
	}
	return v
}

func toDMS(v float64, pos, neg byte) DMS {
	ref := pos
	if v < 0 {
		ref = neg
		v = -v
	}
	deg := int(v)
	rem := (v - float64(deg)) * 60
	min := int(rem)
	sec := (rem - float64(min)) * 60
	return DMS{Degrees: deg, Minutes: min, Seconds: sec, Ref: ref}
}
