package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/flagman/internal/store"
)

// recentLimit caps the processed-comment listing.
const recentLimit = 50

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, st *store.Store) {
	router.GET("/", handleIndex())
	router.GET("/api/status", handleStatus(st))
	router.GET("/api/agents", handleAgents(st))
	router.GET("/api/processed", handleProcessed(st))
}

func handleIndex() gin.HandlerFunc {
	page := `<!doctype html>
<title>flagman</title>
<h1>flagman</h1>
<ul>
<li><a href="/api/status">status</a></li>
<li><a href="/api/agents">active agents</a></li>
<li><a href="/api/processed">recent processed comments</a></li>
</ul>
`
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	}
}

func handleStatus(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := st.Count()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"active_agents":      counts.ActiveAgents,
			"processed_comments": counts.ProcessedComments,
			"time":               time.Now().Format(time.RFC3339),
		})
	}
}

func handleAgents(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		agents, err := st.ActiveAgents()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]gin.H, 0, len(agents))
		for _, a := range agents {
			out = append(out, gin.H{
				"issue_number": a.IssueNumber,
				"pid":          a.PID,
				"started_at":   a.StartedAt.Format(time.RFC3339),
				"log_file":     a.LogFile,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleProcessed(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := st.RecentProcessed(recentLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]gin.H, 0, len(rows))
		for _, r := range rows {
			out = append(out, gin.H{
				"comment_id":   r.CommentID,
				"issue_number": r.IssueNumber,
				"processed_at": r.ProcessedAt.Format(time.RFC3339),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}
