package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/scanlab/internal/imaging"
	"github.com/ironsheep/scanlab/internal/models"
	"github.com/ironsheep/scanlab/internal/scan"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "scan_image", "crop_detection").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"tool":  params.Name,
			"error": err,
		}).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "list_profiles":
		return s.handleListProfiles()

	case "scan_image":
		return s.handleScanImage(ctx, args)
	case "render_detections":
		return s.handleRenderDetections(ctx, args)
	case "crop_detection":
		return s.handleCropDetection(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

// imageInfo describes a loaded image.
type imageInfo struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	format, _ := imaging.FormatForName(a.Path)
	b := img.Bounds()
	return &imageInfo{
		Path:   a.Path,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: strings.ToLower(format.String()),
	}, nil
}

// profileSummary is the tool view of a profile.
type profileSummary struct {
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Threshold    float64 `json:"threshold"`
	Zoom         bool    `json:"zoom"`
	ReadPlates   bool    `json:"read_plates"`
	LabelVersion string  `json:"label_version,omitempty"`
	Default      bool    `json:"default"`
}

func (s *Server) handleListProfiles() (interface{}, error) {
	all := s.svc.Profiles().All()
	out := make([]profileSummary, len(all))
	for i, p := range all {
		out[i] = profileSummary{
			Name:         p.Name,
			Title:        p.Title,
			Threshold:    p.Threshold,
			Zoom:         p.Options.ZoomEnabled,
			ReadPlates:   p.ReadPlates,
			LabelVersion: p.Labels.Version,
			Default:      p.Name == s.defaultProfile,
		}
	}
	return map[string]interface{}{"profiles": out}, nil
}

// === Scan Handlers ===

// scanResult is a report plus the encoded annotated image.
type scanResult struct {
	*scan.Report
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

type scanImageArgs struct {
	Path         string  `json:"path"`
	Profile      string  `json:"profile"`
	Confidence   float64 `json:"confidence"`
	Zoom         *bool   `json:"zoom"`
	Format       string  `json:"format"`
	IncludeImage *bool   `json:"include_image"`
}

func (s *Server) handleScanImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scanImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := imaging.ValidFormat(a.Format); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	rep, err := s.svc.Scan(ctx, scan.Request{
		Profile:   s.profileOrDefault(a.Profile),
		Image:     img,
		Threshold: a.Confidence,
		Zoom:      a.Zoom,
	})
	if err != nil {
		return nil, err
	}

	if a.IncludeImage != nil && !*a.IncludeImage {
		return &scanResult{Report: rep}, nil
	}
	return s.withImage(rep, a.Format)
}

type renderDetectionsArgs struct {
	Path       string             `json:"path"`
	Profile    string             `json:"profile"`
	Detections []models.Detection `json:"detections"`
	Confidence float64            `json:"confidence"`
	Zoom       *bool              `json:"zoom"`
	Format     string             `json:"format"`
}

func (s *Server) handleRenderDetections(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a renderDetectionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := imaging.ValidFormat(a.Format); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	rep, err := s.svc.Render(ctx, scan.Request{
		Profile:   s.profileOrDefault(a.Profile),
		Image:     img,
		Threshold: a.Confidence,
		Zoom:      a.Zoom,
	}, a.Detections)
	if err != nil {
		return nil, err
	}
	return s.withImage(rep, a.Format)
}

func (s *Server) withImage(rep *scan.Report, format string) (*scanResult, error) {
	enc, err := imaging.Encode(rep.Image, format)
	if err != nil {
		return nil, err
	}
	return &scanResult{Report: rep, Image: enc}, nil
}

func (s *Server) profileOrDefault(name string) string {
	if name == "" {
		return s.defaultProfile
	}
	return name
}

// === Region Handlers ===

type cropDetectionArgs struct {
	Path   string  `json:"path"`
	X1     int     `json:"x1"`
	Y1     int     `json:"y1"`
	X2     int     `json:"x2"`
	Y2     int     `json:"y2"`
	Scale  float64 `json:"scale"`
	Format string  `json:"format"`
}

func (s *Server) handleCropDetection(args json.RawMessage) (interface{}, error) {
	var a cropDetectionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropDetection(img, models.Box{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}, a.Scale, a.Format)
}
