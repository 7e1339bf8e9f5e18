package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterDocs serves a short markdown overview of the API at /docs.
func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# Run4Recht API

## Auth

POST /api/auth/login with {"email", "passwort"} returns a bearer token.
All other /api/* routes require "Authorization: Bearer <token>".
The ranking stream also accepts ?access_token=<token>.
Health endpoints, /docs and /swagger are public.

## Routes

- GET /healthz, GET /readyz
- GET /swagger/index.html
- GET /api/gerichte, GET /api/dienstellen, GET /api/dienstellen/:id
- GET /api/mitarbeiter?q=, GET /api/mitarbeiter/dienstelle/:id
- GET /api/profil/:id, PUT /api/profil/:id
- GET /api/turnierinfo, GET /api/turnierinfo/wochen, PUT /api/turnierinfo (admin)
- PUT /api/statistiken, PUT /api/statistiken/zeitraum
- POST /api/statistiken/delta (header Idempotency-Key)
- GET /api/statistiken/mitarbeiter/:id, POST /api/statistiken/mitarbeiter/:id/zeitraum
- GET /api/statistiken/mitarbeiter/:id/aktueller-monat, GET /api/statistiken/mitarbeiter/:id/uebersicht
- GET /api/statistiken/dienstellen/:id, POST /api/statistiken/dienstellen/:id/zeitraum
- POST /api/statistiken/dienstellen/:id/zeitraumall
- GET /api/ranking?fenster=W1|Gesamt, POST /api/ranking/zeitraum, GET /api/ranking/aktueller-monat
- GET /api/ranking/stream (websocket)

Date bodies use {"von_datum", "bis_datum"}; dates are "YYYY-MM-DD" or [year, month, day].
`)
	})
}
