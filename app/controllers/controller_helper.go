package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/HadesClient/hades-web/internal/pkg/apperror"
)

// respondError writes err as {"error": message} with the status of its kind.
// Internal errors are logged here and never leak their text.
func respondError(c *fiber.Ctx, err error) error {
	status := apperror.Status(err)
	if status >= fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": apperror.PublicMessage(err)})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// sendAttachment streams data as a binary download named filename.
func sendAttachment(c *fiber.Ctx, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))
	return c.Send(data)
}

// readFormFile loads a multipart field into memory, reading at most limit+1
// bytes so oversized files can be rejected by size.
func readFormFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

// ClientIP returns the originating address, preferring proxy headers
// (Cloudflare first, then the first X-Forwarded-For hop).
func ClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	return strings.TrimPrefix(c.IP(), "::ffff:")
}
