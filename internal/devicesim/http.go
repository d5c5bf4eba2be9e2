package devicesim

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Faults makes the simulated link slow and lossy.
type Faults struct {
	Latency  time.Duration // added to every request
	FailRate float64       // 0..1 share of requests answered with 503
}

// InitRoutes serves the firmware's HTTP API.
func (s *Simulator) InitRoutes(f Faults) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if f.Latency > 0 || f.FailRate > 0 {
		router.Use(faultInjector(f))
	}
	api := router.Group("/api")
	{
		api.GET("/data", s.getData)
		api.POST("/pump", s.postPump)
	}
	return router
}

func (s *Simulator) getData(c *gin.Context) {
	c.JSON(http.StatusOK, s.Snapshot())
}

func (s *Simulator) postPump(c *gin.Context) {
	var on bool
	switch c.PostForm("state") {
	case "1":
		on = true
	case "0":
		on = false
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be 0 or 1"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pump_active": s.SetPump(on)})
}

func faultInjector(f Faults) gin.HandlerFunc {
	return func(c *gin.Context) {
		if f.Latency > 0 {
			select {
			case <-time.After(f.Latency):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if f.FailRate > 0 && rand.Float64() < f.FailRate {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}
