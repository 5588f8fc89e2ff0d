package folio

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/folio/router"
	"github.com/eringen/folio/views"
)

const (
	navKey = "nav"
	// The router state lives in a cookie, so only the newest entries are kept.
	maxStoredHistory = 20
)

// visit is one request's view of a visitor: their session, anonymous id,
// and navigation router.
type visit struct {
	sess    *sessions.Session
	visitor string
	router  *router.Router
	port    *router.HTMXHistory
}

// loadVisit restores the visitor's router from the session. With push set,
// history writes become htmx response headers; otherwise they are recorded
// in the session only.
func (a *App) loadVisit(c echo.Context, push bool) *visit {
	h := http.Header{}
	if push {
		h = c.Response().Header()
	}
	v := &visit{port: router.NewHTMXHistory(h, "")}
	v.router = router.New(v.port, c.Logger())

	sess, err := session.Get(sessionName, c)
	if err != nil {
		c.Logger().Debugj(log.JSON{"msg": "session unreadable, starting fresh", "error": err.Error()})
	}
	if sess == nil {
		return v
	}
	v.sess = sess
	v.visitor = VisitorID(sess)

	if raw, ok := sess.Values[navKey].(string); ok {
		var st router.State
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			c.Logger().Debugj(log.JSON{"msg": "stored navigation state unreadable", "error": err.Error()})
		} else {
			v.router.Restore(st)
		}
	}
	return v
}

// record makes e the current entry unless it already is.
func (v *visit) record(e router.Entry) {
	if v.router.Current() != e {
		v.router.NavigateTo(e.Page, e.Slug)
	}
}

// save writes the router state and visitor id back to the session cookie.
// It must run before the response body is written.
func (v *visit) save(c echo.Context) {
	if v == nil || v.sess == nil {
		return
	}
	st := v.router.Snapshot()
	if n := len(st.History); n > maxStoredHistory {
		st.History = st.History[n-maxStoredHistory:]
	}
	raw, err := json.Marshal(st)
	if err != nil {
		c.Logger().Warnj(log.JSON{"msg": "encode navigation state", "error": err.Error()})
		return
	}
	v.sess.Values[navKey] = string(raw)
	if err := v.sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnj(log.JSON{"msg": "save session", "error": err.Error()})
	}
}

func (v *visit) nav(c echo.Context) views.Nav {
	if v == nil {
		return views.Nav{Current: router.Home, CSRF: CsrfToken(c)}
	}
	cur := v.router.Current()
	hist := v.router.History()
	return views.Nav{
		Current:   cur,
		CanGoBack: len(hist) > 1 || (len(hist) == 1 && hist[0] != cur),
		CSRF:      CsrfToken(c),
	}
}
