package datastructure

// CongestionLevel is the categorical congestion estimate produced by the
// vehicle detector for one camera frame.
type CongestionLevel string

const (
	CongestionLow      CongestionLevel = "low"
	CongestionModerate CongestionLevel = "moderate"
	CongestionHigh     CongestionLevel = "high"
)

// MaxCongestionHistory caps the per-camera observation history. oldest
// entries are evicted first.
const MaxCongestionHistory = 3

// CongestionSample is one timestamped congestion estimate.
type CongestionSample struct {
	CongestionLevel CongestionLevel `json:"congestion_level"`
	Timestamp       string          `json:"timestamp"`
}

// CameraObservation is the persisted per-camera record: fixed metadata from
// the feed plus the capped sliding window of recent samples.
type CameraObservation struct {
	ID         string             `json:"id"`
	Image      string             `json:"image"`
	Lat        float64            `json:"lat"`
	Lng        float64            `json:"lng"`
	Timestamps []CongestionSample `json:"timestamps"`
}

// LatestLevel returns the most recent congestion level, if any sample has
// been recorded yet.
func (c CameraObservation) LatestLevel() (CongestionLevel, bool) {
	if len(c.Timestamps) == 0 {
		return "", false
	}
	return c.Timestamps[len(c.Timestamps)-1].CongestionLevel, true
}

// Camera is one entry of the traffic-camera feed.
type Camera struct {
	ID       string
	ImageURL string
	Lat      float64
	Lng      float64
}

// ActiveDriverSession is the in-transit state of one driver. CurrentLocation
// is a [lat, lng] pair and Destination a "lat,lng" string, matching the
// persisted document layout.
type ActiveDriverSession struct {
	DriverID        string    `json:"driver_id"`
	ScheduleID      string    `json:"schedule_id"`
	Polyline        string    `json:"polyline"`
	CurrentLocation []float64 `json:"currentLocation"`
	Destination     string    `json:"destination"`
}

// NotificationRecord is one reroute notification. At most one unseen record
// exists per (driver_id, camera_id) pair.
type NotificationRecord struct {
	DriverID  string `json:"driver_id"`
	CameraID  string `json:"camera_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Seen      bool   `json:"seen"`
}

// AnalysisResult is the JSON object the vehicle detector prints for one
// analyzed image.
type AnalysisResult struct {
	Vehicle         int             `json:"vehicle"`
	RoadArea        float64         `json:"road_area"`
	VehicleArea     float64         `json:"vehicle_area"`
	CongestionLevel CongestionLevel `json:"congestion_level"`
}
