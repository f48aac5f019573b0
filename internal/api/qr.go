package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// JoinCode renders a PNG QR code that points to the room's join page.
func (a *API) JoinCode(c *gin.Context) {
	rm, err := a.rs.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		abort(c, err)
		return
	}

	png, err := qrcode.Encode(a.joinURL(c, rm.ID), qrcode.Medium, qrSize)
	if err != nil {
		abort(c, fmt.Errorf("encode qr code: %w", err))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (a *API) joinURL(c *gin.Context, roomID string) string {
	base := strings.TrimSuffix(a.publicURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}

	return base + "/room/" + roomID
}
