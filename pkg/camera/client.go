package camera

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bussin-buses/trafficwatch/pkg/concurrent"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

const downloadWorkers = 8

// Client talks to the traffic-camera feed and mirrors each camera's
// current snapshot into the local images directory. The image filename
// stem is the camera id; the analysis pipeline derives ids back from it.
type Client struct {
	httpClient *http.Client
	feedURL    string
	imagesDir  string
	log        *zap.Logger
}

func NewClient(feedURL, imagesDir string, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		feedURL:    feedURL,
		imagesDir:  imagesDir,
		log:        log,
	}
}

type feedResponse struct {
	Items []struct {
		Cameras []struct {
			CameraID string `json:"camera_id"`
			Image    string `json:"image"`
			Location struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"location"`
		} `json:"cameras"`
	} `json:"items"`
}

// FetchCameras returns the current camera fleet from the feed.
func (c *Client) FetchCameras(ctx context.Context) ([]da.Camera, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "fetching traffic camera feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, util.WrapErrorf(nil, util.ErrInternalServerError,
			"traffic camera feed returned status %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "decoding traffic camera feed")
	}
	if len(feed.Items) == 0 {
		return []da.Camera{}, nil
	}

	cameras := make([]da.Camera, 0, len(feed.Items[0].Cameras))
	for _, cam := range feed.Items[0].Cameras {
		cameras = append(cameras, da.Camera{
			ID:       cam.CameraID,
			ImageURL: cam.Image,
			Lat:      cam.Location.Latitude,
			Lng:      cam.Location.Longitude,
		})
	}
	return cameras, nil
}

type downloadResult struct {
	cameraID string
	err      error
}

// DownloadImages fetches every camera snapshot concurrently and reports how
// many downloads succeeded. Individual failures are logged and skipped.
func (c *Client) DownloadImages(ctx context.Context, cameras []da.Camera) int {
	if len(cameras) == 0 {
		return 0
	}
	if err := os.MkdirAll(c.imagesDir, 0o755); err != nil {
		c.log.Error("creating images directory", zap.Error(err))
		return 0
	}

	pool := concurrent.NewWorkerPool[da.Camera, downloadResult](downloadWorkers, len(cameras))
	pool.Start(func(cam da.Camera) downloadResult {
		return downloadResult{cameraID: cam.ID, err: c.downloadImage(ctx, cam)}
	})
	for _, cam := range cameras {
		pool.AddJob(cam)
	}
	pool.Close()
	pool.Wait()

	downloaded := 0
	for res := range pool.CollectResults() {
		if res.err != nil {
			c.log.Error("downloading camera image",
				zap.String("camera_id", res.cameraID), zap.Error(res.err))
			continue
		}
		downloaded++
	}
	c.log.Info("camera images downloaded",
		zap.Int("downloaded", downloaded), zap.Int("total", len(cameras)))
	return downloaded
}

func (c *Client) downloadImage(ctx context.Context, cam da.Camera) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cam.ImageURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	path := filepath.Join(c.imagesDir, cam.ID+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}
