package levelapi

import (
	"net/http"
	"time"

	"github.com/beka-birhanu/vinom-maze/maze"
	"github.com/beka-birhanu/vinom-maze/seed"
	"github.com/gin-gonic/gin"
)

// Controller serves levels. Generation is pure, so nothing is cached or stored.
type Controller struct {
	dailySalt string
	now       func() time.Time
}

// Config holds the settings of a Controller.
type Config struct {
	DailySalt string           // salt of the seed of the day; seed.DefaultDailySalt when empty
	Now       func() time.Time // clock; time.Now when nil
}

// NewController initializes a level Controller.
func NewController(c Config) *Controller {
	if c.DailySalt == "" {
		c.DailySalt = seed.DefaultDailySalt
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return &Controller{
		dailySalt: c.DailySalt,
		now:       c.Now,
	}
}

// RegisterAPI registers the level routes.
func (lc *Controller) RegisterAPI(route *gin.RouterGroup) {
	route.GET("/daily", lc.daily)
	route.GET("/levels/:seed", lc.level)
	route.GET("/mazes/:seed", lc.maze)
}

// RegisterRoot registers the redirect to the level of the day.
func (lc *Controller) RegisterRoot(route *gin.RouterGroup) {
	route.GET("/", lc.redirectDaily)
}

func (lc *Controller) dailySeed() string {
	return seed.Daily(lc.dailySalt, lc.now())
}

// redirectDaily sends players to the page of today's maze.
func (lc *Controller) redirectDaily(ctx *gin.Context) {
	ctx.Redirect(http.StatusMovedPermanently, "/m/"+lc.dailySeed())
}

func (lc *Controller) daily(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, &DailyResponse{Seed: lc.dailySeed()})
}

// level renders the level of a seed as JSON, or as ASCII with ?format=text.
func (lc *Controller) level(ctx *gin.Context) {
	l := maze.NewLevel(ctx.Param("seed"))

	if ctx.Query("format") == "text" {
		ctx.String(http.StatusOK, l.Maze.String())
		return
	}
	ctx.JSON(http.StatusOK, l)
}

// maze renders the raw maze of a seed at the requested dimensions.
func (lc *Controller) maze(ctx *gin.Context) {
	var query MazeQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, maze.Generate(ctx.Param("seed"), query.Width, query.Height))
}
