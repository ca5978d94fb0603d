package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wordreel/internal/api"
	"wordreel/internal/rsvp"
)

// client is a thin wrapper over the daemon's HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(addr string) *client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &client{
		base: strings.TrimSuffix(base, "/"),
		// Downloads can be large; no overall timeout, per-request contexts
		// bound everything else.
		http: &http.Client{},
	}
}

func (c *client) generate(ctx context.Context, text string, settings rsvp.Settings) (api.GenerateResponse, error) {
	payload, err := json.Marshal(api.GenerateRequest{Text: text, Settings: &settings})
	if err != nil {
		return api.GenerateResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return api.GenerateResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp api.GenerateResponse
	if err := c.do(req, http.StatusAccepted, &resp); err != nil {
		return api.GenerateResponse{}, err
	}
	return resp, nil
}

func (c *client) upload(ctx context.Context, path string, settings rsvp.Settings) (api.GenerateResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.GenerateResponse{}, fmt.Errorf("read %s: %w", path, err)
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return api.GenerateResponse{}, err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return api.GenerateResponse{}, err
	}
	if _, err := part.Write(data); err != nil {
		return api.GenerateResponse{}, err
	}
	if err := form.WriteField("settings", string(settingsJSON)); err != nil {
		return api.GenerateResponse{}, err
	}
	if err := form.Close(); err != nil {
		return api.GenerateResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/generate", &body)
	if err != nil {
		return api.GenerateResponse{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var resp api.GenerateResponse
	if err := c.do(req, http.StatusAccepted, &resp); err != nil {
		return api.GenerateResponse{}, err
	}
	return resp, nil
}

func (c *client) status(ctx context.Context, id string) (api.JobView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/status/"+id, nil)
	if err != nil {
		return api.JobView{}, err
	}
	var view api.JobView
	if err := c.do(req, http.StatusOK, &view); err != nil {
		return api.JobView{}, err
	}
	return view, nil
}

func (c *client) jobs(ctx context.Context) ([]api.JobView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/jobs", nil)
	if err != nil {
		return nil, err
	}
	var resp api.JobListResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *client) cancel(ctx context.Context, id string) (api.JobView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/cancel/"+id, nil)
	if err != nil {
		return api.JobView{}, err
	}
	var view api.JobView
	if err := c.do(req, http.StatusOK, &view); err != nil {
		return api.JobView{}, err
	}
	return view, nil
}

func (c *client) delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/api/job/"+id, nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusNoContent, nil)
}

// download streams the finished video to dest. The file is written to a temp
// sibling and renamed so an interrupted transfer never leaves a broken file
// at the destination.
func (c *client) download(ctx context.Context, id, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/download/"+id, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	tmp := dest + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("download %s: %w", id, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

func (c *client) health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/health", nil)
	if err != nil {
		return err
	}
	var resp api.HealthResponse
	return c.do(req, http.StatusOK, &resp)
}

func (c *client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var apiErr api.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		if apiErr.Code != "" {
			return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("%s", apiErr.Error)
	}
	return fmt.Errorf("daemon returned %s", resp.Status)
}
