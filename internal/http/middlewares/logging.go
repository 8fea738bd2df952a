package middlewares

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/credgate/internal/http/helpers"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// statusRecorder captura el status code y bytes escritos de la respuesta.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.status = http.StatusOK
		s.wroteHeader = true
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Unwrap habilita http.ResponseController sobre el writer original.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// quietPaths se loguean en debug: los pollean balanceadores y prometheus.
var quietPaths = map[string]bool{"/healthz": true, "/readyz": true, "/metrics": true}

// WithLogging deja en el contexto un logger con request_id, method y path,
// y registra una línea por request al terminar. El nivel sigue al status.
//
//	{"level":"warn","msg":"request completed","request_id":"…","method":"POST","path":"/login","status":401,"bytes":73,"duration_ms":41,"client_ip":"10.0.0.7"}
func WithLogging(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := logger.L().With(
				logger.RequestID(GetRequestID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(logger.ToContext(r.Context(), reqLog)))

			fields := []logger.Field{
				logger.Status(rec.status),
				logger.Bytes(rec.bytes),
				logger.DurationMs(time.Since(start).Milliseconds()),
				logger.ClientIP(helpers.ClientIP(r, trustProxy)),
			}
			switch {
			case rec.status >= 500:
				reqLog.Error("request completed", fields...)
			case rec.status >= 400:
				reqLog.Warn("request completed", append(fields, logger.UserAgent(r.UserAgent()))...)
			case quietPaths[r.URL.Path]:
				reqLog.Debug("request completed", fields...)
			default:
				reqLog.Info("request completed", fields...)
			}
		})
	}
}
