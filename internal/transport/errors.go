package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

// ErrorHandler renders domain errors as client errors and everything else
// as a logged 500.
func (s *HTTPServer) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.translate(err, c)

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		s.logger.Errorw("write error response", "error", werr)
	}
}

func (s *HTTPServer) translate(err error, c echo.Context) (int, interface{}) {
	var (
		verr     *service.ValidationError
		conflict *service.ConflictError
		nf       *service.NotFoundError
		herr     *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, models.ErrorResp{Errors: verr.Reason}
	case errors.As(err, &conflict):
		return http.StatusBadRequest, models.ErrorResp{Errors: conflict.Reason}
	case errors.As(err, &nf):
		return http.StatusNotFound, models.DetailResp{Detail: nf.Error()}
	case errors.As(err, &herr):
		msg, ok := herr.Message.(string)
		if !ok {
			msg = http.StatusText(herr.Code)
		}
		return herr.Code, models.DetailResp{Detail: msg}
	default:
		s.logger.Errorw("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return http.StatusInternalServerError, models.DetailResp{Detail: http.StatusText(http.StatusInternalServerError)}
	}
}
