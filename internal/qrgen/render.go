package qrgen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

// Request — параметры рендеринга. Content должен быть уже отформатирован
// (FormatContent / BuildVCard).
type Request struct {
	Content         string `json:"content"`
	Size            int    `json:"size"`
	ErrorCorrection string `json:"error_correction"`
	Border          int    `json:"border"`
	ForegroundColor string `json:"foreground_color"`
	BackgroundColor string `json:"background_color"`
	LogoURL         string `json:"logo_url,omitempty"`
}

// Result — структурированный результат. Ошибки рендеринга не пересекают
// границу сервиса как panics: вызывающий проверяет Success.
type Result struct {
	Success    bool   `json:"success"`
	QRCodeData string `json:"qr_code_data,omitempty"` // data:image/png;base64,...
	PNG        []byte `json:"-"`
	Error      string `json:"error,omitempty"`
}

// Renderer кодирует контент в QR-матрицу и растеризует её.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render генерирует PNG точно запрошенного размера: матрица рисуется
// по модулям, затем ресемплится CatmullRom-фильтром до Size пикселей.
func (r *Renderer) Render(req Request) Result {
	fg, err := parseHexColor(req.ForegroundColor, color.Black)
	if err != nil {
		return fail("invalid foreground color %q: %v", req.ForegroundColor, err)
	}
	bg, err := parseHexColor(req.BackgroundColor, color.White)
	if err != nil {
		return fail("invalid background color %q: %v", req.BackgroundColor, err)
	}
	if req.Border < 0 {
		return fail("border must be >= 0, got %d", req.Border)
	}

	q, err := qrcode.New(req.Content, recoveryLevel(req.ErrorCorrection))
	if err != nil {
		return fail("encoding content: %v", err)
	}
	// Quiet zone рисуем сами нужной ширины.
	q.DisableBorder = true

	img := drawModules(q.Bitmap(), req.Border, fg, bg)

	if req.Size > 0 && img.Bounds().Dx() != req.Size {
		dst := image.NewRGBA(image.Rect(0, 0, req.Size, req.Size))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}

	// Логотип пока не накладывается: заглушка не должна ронять рендеринг,
	// даже если URL недоступен.
	img = r.addLogo(img, req.LogoURL)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fail("encoding PNG: %v", err)
	}

	return Result{
		Success:    true,
		PNG:        buf.Bytes(),
		QRCodeData: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
}

func fail(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// recoveryLevel — четыре фиксированных уровня избыточности (~7/15/25/30%).
// Неизвестный ввод деградирует к M.
func recoveryLevel(level string) qrcode.RecoveryLevel {
	switch level {
	case "L":
		return qrcode.Low
	case "M":
		return qrcode.Medium
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// drawModules растеризует матрицу по одному пикселю на модуль
// плюс рамка шириной border модулей.
func drawModules(bitmap [][]bool, border int, fg, bg color.Color) *image.RGBA {
	n := len(bitmap)
	side := n + 2*border
	img := image.NewRGBA(image.Rect(0, 0, side, side))

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.Set(x, y, bg)
		}
	}
	for y, row := range bitmap {
		for x, set := range row {
			if set {
				img.Set(x+border, y+border, fg)
			}
		}
	}
	return img
}

// addLogo — no-op заглушка наложения логотипа.
func (r *Renderer) addLogo(img *image.RGBA, logoURL string) *image.RGBA {
	return img
}

// parseHexColor разбирает "#RRGGBB"; пустая строка даёт значение по умолчанию.
func parseHexColor(s string, def color.Color) (color.Color, error) {
	if s == "" {
		return def, nil
	}
	if len(s) != 7 || s[0] != '#' {
		return nil, fmt.Errorf("want #RRGGBB")
	}
	var c color.RGBA
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return nil, err
	}
	c.A = 0xFF
	return c, nil
}
