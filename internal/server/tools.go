package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file (.jpg, .jpeg or .png)",
	}
}

func profileProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Scan profile: fruit, helmet, mask or plate (default: the server's default profile)",
	}
}

func formatProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"png", "jpeg"},
		"default":     "png",
		"description": "Output image format",
	}
}

func boxProperties() map[string]interface{} {
	return map[string]interface{}{
		"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate"},
		"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate"},
		"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
		"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for later scans of the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "list_profiles",
			Description: "List the scan profiles with their default confidence threshold, zoom setting and label version.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Scanning
		{
			Name:        "scan_image",
			Description: "Run the profile's detection model over an image and return the annotated image with a summary of what was identified. Boxes are outlined in the class color, tagged with label and confidence, and (for profiles with zoom) magnified into slots along the right edge.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"profile": profileProperty(),
					"confidence": map[string]interface{}{
						"type":        "number",
						"description": "Confidence threshold between 0.05 and 1.0 (default: the profile's threshold)",
						"minimum":     0.05,
						"maximum":     1.0,
					},
					"zoom": map[string]interface{}{
						"type":        "boolean",
						"description": "Override the profile's zoom setting",
					},
					"format": formatProperty(),
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the annotated image as base64 (default: true)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "render_detections",
			Description: "Draw caller-supplied detections onto an image using a profile's labels and colors, without running a model.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"profile": profileProperty(),
					"detections": map[string]interface{}{
						"type":        "array",
						"description": "Detections to draw",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"class_id":   map[string]interface{}{"type": "integer"},
								"confidence": map[string]interface{}{"type": "number"},
								"box": map[string]interface{}{
									"type":       "object",
									"properties": boxProperties(),
									"required":   []string{"x1", "y1", "x2", "y2"},
								},
							},
							"required": []string{"class_id", "confidence", "box"},
						},
					},
					"confidence": map[string]interface{}{
						"type":        "number",
						"description": "Detections below this threshold are ignored (default: the profile's threshold)",
					},
					"zoom": map[string]interface{}{
						"type":        "boolean",
						"description": "Override the profile's zoom setting",
					},
					"format": formatProperty(),
				},
				"required": []string{"path", "detections"},
			},
		},
		{
			Name:        "crop_detection",
			Description: "Crop a detection box from an image, optionally magnified, and return it as base64. Use this to examine a single finding closely.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": func() map[string]interface{} {
					props := boxProperties()
					props["path"] = pathProperty()
					props["scale"] = map[string]interface{}{
						"type":        "number",
						"default":     1.0,
						"description": "Magnification factor",
					}
					props["format"] = formatProperty()
					return props
				}(),
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
	}
}
