package server

import (
	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/progress"
)

// placeQuery is the location part of most requests.
type placeQuery struct {
	Lat    *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lon    *float64 `form:"lon" binding:"required,min=-180,max=180"`
	Method string   `form:"method"`
	Madhab string   `form:"madhab"`
	TZ     string   `form:"tz"`
	Date   string   `form:"date"`
}

type qiblaQuery struct {
	Lat     *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lon     *float64 `form:"lon" binding:"required,min=-180,max=180"`
	Heading *float64 `form:"heading" binding:"omitempty,min=0,max=360"`
}

type recordPrayerRequest struct {
	Date   string `json:"date" binding:"required"`
	Prayer string `json:"prayer" binding:"required"`
	// Prayed defaults to true when omitted.
	Prayed *bool `json:"prayed"`
}

type completeLessonRequest struct {
	ID string `json:"id" binding:"required"`
}

type timingsResponse struct {
	Date       string             `json:"date"`
	Location   geo.Coordinates    `json:"location"`
	Method     prayer.Method      `json:"method"`
	MethodName string             `json:"method_name"`
	Madhab     prayer.Madhab      `json:"madhab"`
	Zone       string             `json:"zone"`
	Timings    prayer.PrayerTimes `json:"timings"`
}

type nextResponse struct {
	Name             string `json:"name"`
	Time             string `json:"time"` // RFC 3339
	RemainingSeconds int64  `json:"remaining_seconds"`
	Remaining        string `json:"remaining"`
}

type qiblaResponse struct {
	Bearing    float64  `json:"bearing"`
	Cardinal   string   `json:"cardinal"`
	DistanceKm int      `json:"distance_km"`
	Relative   *float64 `json:"relative,omitempty"`
}

type methodResponse struct {
	ID           prayer.Method `json:"id"`
	Name         string        `json:"name"`
	FajrAngle    float64       `json:"fajr_angle"`
	IshaAngle    float64       `json:"isha_angle,omitempty"`
	IshaInterval float64       `json:"isha_interval_minutes,omitempty"`
	AlAdhanID    int           `json:"aladhan_id"`
}

type progressResponse struct {
	Progress     *progress.Progress     `json:"progress"`
	Stats        progress.Stats         `json:"stats"`
	Achievements []progress.Achievement `json:"achievements"`
}
