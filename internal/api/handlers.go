package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/formlift/formlift/internal/convert"
	"github.com/formlift/formlift/internal/heightmap"
	"github.com/formlift/formlift/internal/httputil"
	"github.com/formlift/formlift/internal/security"
)

// writeResult streams the first output file back as a download. Metadata
// for the whole job rides in X-Formlift-* headers so multi-file results
// stay inspectable from a single response.
func (s *Server) writeResult(w http.ResponseWriter, res *convert.Result) {
	body, err := os.ReadFile(s.converter.OutputPath(res.Files[0]))
	if err != nil {
		httputil.InternalServerError(w, "failed to read generated model")
		return
	}

	h := w.Header()
	h.Set("X-Formlift-Job-Id", res.JobID)
	h.Set("X-Formlift-Mode", res.Mode)
	h.Set("X-Formlift-Vertices", strconv.Itoa(res.Vertices))
	h.Set("X-Formlift-Faces", strconv.Itoa(res.Faces))
	h.Set("X-Formlift-Width-MM", fmt.Sprintf("%.2f", res.WidthMM))
	h.Set("X-Formlift-Depth-MM", fmt.Sprintf("%.2f", res.DepthMM))
	h.Set("X-Formlift-Height-MM", fmt.Sprintf("%.2f", res.HeightMM))
	h.Set("X-Formlift-Files", strconv.Itoa(len(res.Files)))

	httputil.WriteAttachment(w, res.Files[0], body)
}

// writeConvertError maps the conversion error taxonomy onto status codes.
func writeConvertError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, convert.ErrInput), errors.Is(err, convert.ErrGeometry):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func formFloat(r *http.Request, name string, def float64) (float64, error) {
	v := r.FormValue(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %q parameter", name)
	}
	return f, nil
}

func formInt(r *http.Request, name string, def int) (int, error) {
	v := r.FormValue(name)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %q parameter", name)
	}
	return i, nil
}

// parseUpload bounds and parses a multipart body.
func parseUpload(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid or oversized multipart body")
		return false
	}
	return true
}

func (s *Server) convertHeightmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !parseUpload(w, r) {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.BadRequest(w, "missing 'image' upload")
		return
	}
	defer file.Close()

	img, err := heightmap.DecodeImage(file)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	maxHeight, err := formFloat(r, "max_height", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	baseThickness, err := formFloat(r, "base_thickness", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	pixelSize, err := formFloat(r, "pixel_size", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := s.converter.Heightmap(security.SanitizeFilename(header.Filename), heightmap.Brightness{
		Image:         img,
		MaxHeight:     maxHeight,
		BaseThickness: baseThickness,
		PixelSize:     pixelSize,
	})
	if err != nil {
		writeConvertError(w, err)
		return
	}
	s.writeResult(w, res)
}

type brailleRequest struct {
	Text          string  `json:"text"`
	DotHeight     float64 `json:"dot_height"`
	BaseThickness float64 `json:"base_thickness"`
}

func (s *Server) convertBraille(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req brailleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}

	res, err := s.converter.Braille(heightmap.Braille{
		Text:          req.Text,
		DotHeight:     req.DotHeight,
		BaseThickness: req.BaseThickness,
	})
	if err != nil {
		writeConvertError(w, err)
		return
	}
	s.writeResult(w, res)
}

type qrRequest struct {
	Data          string  `json:"data"`
	RaisedHeight  float64 `json:"raised_height"`
	BaseThickness float64 `json:"base_thickness"`
	BoxSize       int     `json:"box_size"`
	Stamp         bool    `json:"stamp"`
}

func (s *Server) convertQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req qrRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}

	res, err := s.converter.QR(heightmap.QR{
		Data:          req.Data,
		RaisedHeight:  req.RaisedHeight,
		BaseThickness: req.BaseThickness,
		BoxSize:       req.BoxSize,
		Invert:        req.Stamp,
	})
	if err != nil {
		writeConvertError(w, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) convertTopo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !parseUpload(w, r) {
		return
	}

	verticalScale, err := formFloat(r, "vertical_scale", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if r.FormValue("demo") == "true" {
		size, err := formInt(r, "grid_size", 0)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		res, err := s.converter.TopoDemo(heightmap.DemoTerrain{
			Size:          size,
			VerticalScale: verticalScale,
		})
		if err != nil {
			writeConvertError(w, err)
			return
		}
		s.writeResult(w, res)
		return
	}

	file, header, err := r.FormFile("csv")
	if err != nil {
		httputil.BadRequest(w, "missing 'csv' upload (or set demo=true)")
		return
	}
	defer file.Close()

	points, err := heightmap.ParseElevationCSV(file)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	gridSize, err := formInt(r, "grid_size", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := s.converter.Topo(security.SanitizeFilename(header.Filename), heightmap.Elevation{
		Points:        points,
		GridSize:      gridSize,
		VerticalScale: verticalScale,
	})
	if err != nil {
		writeConvertError(w, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) convertDepth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !parseUpload(w, r) {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.BadRequest(w, "missing 'image' upload")
		return
	}
	defer file.Close()

	img, err := heightmap.DecodeImage(file)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	maxDepth, err := formFloat(r, "max_depth", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	baseThickness, err := formFloat(r, "base_thickness", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := s.converter.Depth(security.SanitizeFilename(header.Filename), heightmap.Depth{
		Image:         img,
		MaxDepth:      maxDepth,
		BaseThickness: baseThickness,
	})
	if err != nil {
		writeConvertError(w, err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) convertMulti(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !parseUpload(w, r) {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.BadRequest(w, "missing 'image' upload")
		return
	}
	defer file.Close()

	img, err := heightmap.DecodeImage(file)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	threshold, err := formInt(r, "threshold", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if threshold < 0 || threshold > 255 {
		httputil.BadRequest(w, "threshold must be between 0 and 255")
		return
	}
	maxHeight, err := formFloat(r, "max_height", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := s.converter.MultiMaterial(security.SanitizeFilename(header.Filename), heightmap.ThresholdSplit{
		Image:     img,
		Threshold: uint8(threshold),
		MaxHeight: maxHeight,
	})
	if err != nil {
		writeConvertError(w, err)
		return
	}
	s.writeResult(w, res)
}
