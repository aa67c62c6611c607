// Package middleware holds the gin middleware that authenticates requests and
// resolves the project and task they target.
//
// Resolved values live in one Scope per request. Handlers read them through
// CurrentUser, CurrentProject and CurrentTask.
package middleware

import (
	"uptask/internal/model"

	"github.com/gin-gonic/gin"
)

const scopeKey = "uptask.scope"

// Scope is what the middleware chain has resolved for a request.
type Scope struct {
	User    *model.Identity
	Project *model.Project
	Task    *model.Task
}

func scopeOf(c *gin.Context) *Scope {
	if v, ok := c.Get(scopeKey); ok {
		if s, ok := v.(*Scope); ok {
			return s
		}
	}
	s := &Scope{}
	c.Set(scopeKey, s)
	return s
}

func SetUser(c *gin.Context, id model.Identity)         { scopeOf(c).User = &id }
func SetProject(c *gin.Context, project *model.Project) { scopeOf(c).Project = project }
func SetTask(c *gin.Context, task *model.Task)          { scopeOf(c).Task = task }

// CurrentUser returns the authenticated identity.
func CurrentUser(c *gin.Context) (model.Identity, bool) {
	if u := scopeOf(c).User; u != nil {
		return *u, true
	}
	return model.Identity{}, false
}

func CurrentProject(c *gin.Context) *model.Project { return scopeOf(c).Project }
func CurrentTask(c *gin.Context) *model.Task       { return scopeOf(c).Task }
