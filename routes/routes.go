package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/famconomy/famconomy-api/handlers"
	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/services"
)

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, db *sql.DB) {
	authHandler := &handlers.AuthHandler{DB: db}

	rg.POST("/auth/signup", authHandler.Signup)
	rg.POST("/auth/login", authHandler.Login)
	rg.POST("/auth/refresh", authHandler.Refresh)
}

// SetupUserRoutes sets up protected user profile routes.
func SetupUserRoutes(rg *gin.RouterGroup, db *sql.DB) {
	userHandler := &handlers.UserHandler{DB: db}

	rg.GET("/user/profile", userHandler.GetProfile)
	rg.PUT("/user/profile", userHandler.UpdateProfile)
	rg.POST("/user/password", userHandler.ChangePassword)
	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
}

// SetupFamilyRoutes sets up family and invitation routes.
func SetupFamilyRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger, email *services.EmailService) {
	familyHandler := &handlers.FamilyHandler{DB: db}
	invitationHandler := &handlers.InvitationHandler{DB: db, Email: email}
	member := middleware.RequireFamilyMembership(db, log)

	rg.POST("/families", familyHandler.CreateFamily)
	rg.GET("/families", familyHandler.GetFamilies)
	rg.GET("/families/:id", member, familyHandler.GetFamily)
	rg.PUT("/families/:id", member, familyHandler.UpdateFamily)
	rg.GET("/families/:id/members", member, familyHandler.GetMembers)
	rg.DELETE("/families/:id/members/:member_id", member, familyHandler.RemoveMember)

	rg.POST("/invitations", invitationHandler.CreateInvitation)
	rg.GET("/families/:id/invitations", member, invitationHandler.GetInvitations)
	rg.DELETE("/families/:id/invitations/:invitation_id", member, invitationHandler.CancelInvitation)
	rg.POST("/invitations/accept", invitationHandler.AcceptInvitation)
	rg.POST("/invitations/decline", invitationHandler.DeclineInvitation)
}

// SetupTaskRoutes sets up task and gig routes.
func SetupTaskRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger, ws *handlers.WSHandler) {
	taskHandler := &handlers.TaskHandler{DB: db, WS: ws}
	gigHandler := &handlers.GigHandler{DB: db, WS: ws}
	member := middleware.RequireFamilyMembership(db, log)

	rg.POST("/tasks", taskHandler.CreateTask)
	rg.GET("/tasks", member, taskHandler.GetTasks)
	rg.GET("/tasks/:id", taskHandler.GetTask)
	rg.PUT("/tasks/:id", taskHandler.UpdateTask)
	rg.PUT("/tasks/:id/approval", taskHandler.UpdateApproval)
	rg.DELETE("/tasks/:id", taskHandler.DeleteTask)

	rg.POST("/gigs", gigHandler.CreateGig)
	rg.GET("/gigs", member, gigHandler.GetGigs)
	rg.POST("/gigs/:id/claim", gigHandler.ClaimGig)
	rg.POST("/gigs/:id/complete", gigHandler.CompleteGig)
	rg.DELETE("/gigs/:id", gigHandler.DeleteGig)
}

// SetupCalendarRoutes sets up calendar event routes.
func SetupCalendarRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger, ws *handlers.WSHandler) {
	calendarHandler := &handlers.CalendarHandler{DB: db, WS: ws}
	member := middleware.RequireFamilyMembership(db, log)

	rg.POST("/calendar", calendarHandler.CreateEvent)
	rg.GET("/calendar", member, calendarHandler.GetEvents)
	rg.PUT("/calendar/:id", calendarHandler.UpdateEvent)
	rg.DELETE("/calendar/:id", calendarHandler.DeleteEvent)
}

// SetupMessageRoutes sets up family chat and notification routes.
func SetupMessageRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger, ws *handlers.WSHandler, notifications *services.NotificationService) {
	messageHandler := &handlers.MessageHandler{DB: db, WS: ws, Notifications: notifications}
	notificationHandler := &handlers.NotificationHandler{DB: db, Notifications: notifications}
	member := middleware.RequireFamilyMembership(db, log)

	rg.POST("/messages", messageHandler.CreateMessage)
	rg.GET("/messages", member, messageHandler.GetMessages)

	rg.GET("/notifications", notificationHandler.GetNotifications)
	rg.GET("/notifications/unread", notificationHandler.GetUnreadCount)
	rg.PUT("/notifications/:id/read", notificationHandler.MarkRead)
	rg.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
}

// SetupBudgetRoutes sets up budget, transaction and savings goal routes.
func SetupBudgetRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger) {
	budgetHandler := &handlers.BudgetHandler{DB: db}
	member := middleware.RequireFamilyMembership(db, log)

	rg.POST("/budgets", budgetHandler.CreateBudget)
	rg.GET("/budgets", member, budgetHandler.GetBudgets)
	rg.PUT("/budgets/:id", budgetHandler.UpdateBudget)
	rg.DELETE("/budgets/:id", budgetHandler.DeleteBudget)

	rg.POST("/transactions", budgetHandler.CreateTransaction)
	rg.GET("/budgets/:id/transactions", budgetHandler.GetTransactions)
	rg.DELETE("/transactions/:id", budgetHandler.DeleteTransaction)

	rg.POST("/savings-goals", budgetHandler.CreateSavingsGoal)
	rg.GET("/savings-goals", member, budgetHandler.GetSavingsGoals)
	rg.POST("/savings-goals/:id/contribute", budgetHandler.Contribute)
}

// SetupShoppingRoutes sets up shopping list, recipe and meal plan routes.
func SetupShoppingRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger, ws *handlers.WSHandler, shopping *services.ShoppingService) {
	shoppingHandler := &handlers.ShoppingHandler{DB: db, Shopping: shopping, WS: ws}
	recipeHandler := &handlers.RecipeHandler{DB: db}
	member := middleware.RequireFamilyMembership(db, log)

	rg.POST("/shopping-lists", shoppingHandler.CreateList)
	rg.GET("/shopping-lists", member, shoppingHandler.GetLists)
	rg.GET("/shopping-lists/:id", shoppingHandler.GetList)
	rg.DELETE("/shopping-lists/:id", shoppingHandler.DeleteList)
	rg.POST("/shopping-lists/:id/aggregate-meal-plan", shoppingHandler.AggregateMealPlan)

	rg.POST("/shopping-items", shoppingHandler.CreateItem)
	rg.PUT("/shopping-items/:id", shoppingHandler.UpdateItem)
	rg.DELETE("/shopping-items/:id", shoppingHandler.DeleteItem)

	rg.POST("/recipes", recipeHandler.CreateRecipe)
	rg.GET("/recipes", member, recipeHandler.GetRecipes)
	rg.GET("/recipes/:id", recipeHandler.GetRecipe)
	rg.PUT("/recipes/:id", recipeHandler.UpdateRecipe)
	rg.DELETE("/recipes/:id", recipeHandler.DeleteRecipe)

	rg.POST("/meals", recipeHandler.CreateMealPlanEntry)
	rg.GET("/meals", member, recipeHandler.GetMealPlan)
	rg.DELETE("/meals/:id", recipeHandler.DeleteMealPlanEntry)
}

// SetupWishlistRoutes sets up wishlist routes.
func SetupWishlistRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger) {
	wishlistHandler := &handlers.WishlistHandler{DB: db}
	member := middleware.RequireFamilyMembership(db, log)

	rg.GET("/wishlists", member, wishlistHandler.GetWishlist)
	rg.POST("/wishlists/items", member, wishlistHandler.AddItem)
	rg.DELETE("/wishlists/items/:id", wishlistHandler.DeleteItem)
	rg.POST("/wishlists/items/:id/reserve", wishlistHandler.ReserveItem)
	rg.POST("/wishlists/items/:id/unreserve", wishlistHandler.UnreserveItem)
}

// SetupDashboardRoutes sets up the aggregate dashboard route.
func SetupDashboardRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger) {
	dashboardHandler := &handlers.DashboardHandler{DB: db, Log: log}
	member := middleware.RequireFamilyMembership(db, log)

	rg.GET("/dashboard/:familyId", member, dashboardHandler.GetSummary)
}

// SetupAssistantRoutes sets up the assistant memory routes.
func SetupAssistantRoutes(rg *gin.RouterGroup, db *sql.DB, assistant *services.AssistantService) {
	assistantHandler := &handlers.AssistantHandler{DB: db, Assistant: assistant}

	rg.POST("/assistant/memories", assistantHandler.CreateMemory)
	rg.GET("/assistant/memories", assistantHandler.GetMemories)
}

// SetupFamilyControlsRoutes sets up the screen-time authorization surface.
func SetupFamilyControlsRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger) {
	fc := services.NewFamilyControlsService(db, log)
	h := &handlers.FamilyControlsHandler{DB: db, FC: fc, Log: log}

	rg.POST("/family-controls/authorize", h.Authorize)
	rg.GET("/family-controls/account", h.GetAccountStatus)
	rg.GET("/family-controls/tokens", h.ListTokens)
	rg.GET("/family-controls/tokens/:token/status", h.CheckToken)
	rg.POST("/family-controls/tokens/:token/validate", h.ValidateToken)
	rg.POST("/family-controls/tokens/:token/revoke", h.RevokeToken)
	rg.POST("/family-controls/tokens/:token/renew", h.RenewToken)
	rg.POST("/family-controls/cleanup", h.CleanupTokens)
	rg.POST("/family-controls/screen-time", h.RecordScreenTime)
	rg.GET("/family-controls/screen-time", h.GetScreenTimeHistory)
	rg.PUT("/family-controls/policies", h.UpsertPolicy)
	rg.GET("/family-controls/policies", h.ListPolicies)
	rg.GET("/family-controls/stats/:familyId", h.GetStats)
}

// SetupWSRoutes sets up the realtime websocket endpoint.
func SetupWSRoutes(rg *gin.RouterGroup, db *sql.DB, log *logrus.Logger, ws *handlers.WSHandler) {
	member := middleware.RequireFamilyMembership(db, log)

	rg.GET("/ws/:familyId", member, ws.HandleWS)
}
