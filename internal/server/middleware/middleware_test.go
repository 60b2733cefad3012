package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"parley/internal/pkg/ctxutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRecovery(t *testing.T) {
	Convey("Recovery", t, func() {
		engine := gin.New()
		engine.Use(Recovery())
		engine.GET("/boom", func(c *gin.Context) { panic("boom") })
		engine.GET("/abort", func(c *gin.Context) { panic(http.ErrAbortHandler) })

		Convey("普通 panic 转为 500", func() {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("ErrAbortHandler 继续向上抛出", func() {
			w := httptest.NewRecorder()
			So(func() {
				engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/abort", nil))
			}, ShouldPanicWith, http.ErrAbortHandler)
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("RequestID", t, func() {
		engine := gin.New()
		engine.Use(RequestID())
		var seen string
		engine.GET("/", func(c *gin.Context) {
			seen, _ = ctxutil.GetRequestID(c.Request.Context())
		})

		Convey("透传客户端的请求 ID", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			So(seen, ShouldEqual, "abc-123")
			So(w.Header().Get(RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("缺失时生成", func() {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			So(seen, ShouldNotBeEmpty)
			So(w.Header().Get(RequestIDHeader), ShouldEqual, seen)
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("CORS", t, func() {
		preflight := func(engine *gin.Engine, origin string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodOptions, "/", nil)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			return w
		}
		newEngine := func(origins []string) *gin.Engine {
			engine := gin.New()
			engine.Use(CORS(origins))
			engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
			return engine
		}

		Convey("白名单来源携带凭证", func() {
			engine := newEngine([]string{"https://chat.example.com"})
			w := preflight(engine, "https://chat.example.com")
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://chat.example.com")
			So(w.Header().Get("Access-Control-Allow-Credentials"), ShouldEqual, "true")

			So(preflight(engine, "https://evil.example.com").Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("通配来源不携带凭证", func() {
			w := preflight(newEngine([]string{"*"}), "https://any.example.com")
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			So(w.Header().Get("Access-Control-Allow-Credentials"), ShouldBeEmpty)
		})

		Convey("未配置来源时不处理", func() {
			engine := newEngine(nil)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", "https://any.example.com")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
		})
	})
}
