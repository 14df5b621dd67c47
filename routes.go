package vendsite

import (
	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/readonly"
)

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	// Public routes
	e.GET("/", a.handleHome)
	e.GET("/products/", a.handleProducts)
	e.GET("/products/:slug/", a.handleProduct)
	e.GET("/machines/", a.handleMachines)
	e.GET("/machines/:slug/", a.handleMachine)
	e.GET("/technology/", a.handleTechnologies)
	e.GET("/technology/:slug/", a.handleTechnology)
	e.GET("/business-goals/", a.handleBusinessGoals)
	e.GET("/business-goals/:slug/", a.handleBusinessGoal)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:slug/", a.handleBlogPost)
	e.GET("/contact/", a.handleContact)
	e.POST("/contact/", a.handleContactSubmit)

	// JSON API
	api := e.Group("/api")
	api.GET("/content/:type", a.handleAPIList)
	api.GET("/content/:type/:slug", a.handleAPIItem)
	api.POST("/webhooks/contentful", a.handleWebhook)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	admin := e.Group("/admin", requireAdmin)
	admin.POST("/migration/:type/", a.handleMigration)
	admin.GET("/content/:type/", a.handleAdminContent)
	admin.POST("/content/:type/", a.handleContentWrite(readonly.OpCreate))
	admin.PUT("/content/:type/:id/", a.handleContentWrite(readonly.OpUpdate))
	admin.DELETE("/content/:type/:id/", a.handleContentWrite(readonly.OpDelete))
	admin.POST("/content/:type/:id/clone/", a.handleContentWrite(readonly.OpClone))
	admin.GET("/export/", a.handleExport)
	admin.POST("/cache/flush/", a.handleCacheFlush)
	admin.GET("/media/", a.handleMediaList)
	admin.POST("/media/upload/", a.handleMediaUpload)
	admin.DELETE("/media/:filename/", a.handleMediaDelete)
}
