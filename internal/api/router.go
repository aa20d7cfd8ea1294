package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/example/mall-backoffice/internal/api/middleware"
	"github.com/example/mall-backoffice/internal/auth"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWT          *auth.JWTService
}

// NewRouter mounts every route under /api/v1. Reads of the public catalog
// (zones, shops, products) need no token; everything else goes through
// AuthMiddleware and the capability table.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handlers
	authn := middleware.AuthMiddleware(cfg.JWT)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandlers.Register)
			r.Post("/login", cfg.AuthHandlers.Login)
			r.Post("/logout", cfg.AuthHandlers.Logout)
			r.With(authn).Get("/me", cfg.AuthHandlers.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authn)
			r.With(allow(auth.ResourceUser, auth.ActionList)).Get("/", h.ListUsers)
			r.With(allow(auth.ResourceUser, auth.ActionList)).Get("/merchants", h.ListMerchants)
			r.With(allow(auth.ResourceUser, auth.ActionCreate)).Post("/", h.CreateUser)
			r.With(allow(auth.ResourceUser, auth.ActionRead)).Get("/{id}", h.GetUser)
			r.With(allow(auth.ResourceUser, auth.ActionUpdate)).Put("/{id}", h.UpdateUser)
			r.With(allow(auth.ResourceUser, auth.ActionDelete)).Delete("/{id}", h.DeleteUser)
			r.With(allow(auth.ResourceUser, auth.ActionUpdate)).Post("/{id}/shops/{shopID}", h.AssignShop)
		})

		r.Route("/zones", func(r chi.Router) {
			r.Get("/", h.ListZones)
			r.Get("/{id}", h.GetZone)
			r.With(authn, allow(auth.ResourceZone, auth.ActionCreate)).Post("/", h.CreateZone)
			r.With(authn, allow(auth.ResourceZone, auth.ActionUpdate)).Put("/{id}", h.UpdateZone)
			r.With(authn, allow(auth.ResourceZone, auth.ActionDelete)).Delete("/{id}", h.DeleteZone)
		})

		r.Route("/shops", func(r chi.Router) {
			r.Get("/", h.ListShops)
			r.Get("/stats", h.ShopStats)
			r.Get("/{id}", h.GetShop)
			r.Get("/{id}/products", h.ShopProducts)
			r.With(authn, allow(auth.ResourceShop, auth.ActionCreate)).Post("/", h.CreateShop)
			r.With(authn, allow(auth.ResourceShop, auth.ActionUpdate)).Put("/{id}", h.UpdateShop)
			r.With(authn, allow(auth.ResourceShop, auth.ActionDelete)).Delete("/{id}", h.DeleteShop)
			r.With(authn, allow(auth.ResourceShop, auth.ActionManage)).Get("/{id}/orders", h.ShopOrders)
			r.With(authn, allow(auth.ResourceLease, auth.ActionManage)).Get("/{id}/history", h.ShopHistory)
			r.With(authn, allow(auth.ResourceLease, auth.ActionManage)).Get("/{id}/payments", h.ShopPayments)
			r.With(authn, allow(auth.ResourceLease, auth.ActionManage)).Get("/{id}/occupants", h.ShopOccupants)
		})

		r.Route("/leases", func(r chi.Router) {
			r.Use(authn)
			r.With(allow(auth.ResourceLease, auth.ActionList)).Get("/", h.ListLeases)
			r.With(allow(auth.ResourceLease, auth.ActionManage)).Get("/unpaid", h.UnpaidLeases)
			r.With(allow(auth.ResourceLease, auth.ActionManage)).Get("/stats/monthly", h.MonthlyLeaseStats)
			r.With(allow(auth.ResourceLease, auth.ActionRead)).Get("/{id}", h.GetLease)
			r.With(allow(auth.ResourceLease, auth.ActionCreate)).Post("/", h.CreateLease)
			r.With(allow(auth.ResourceLease, auth.ActionUpdate)).Put("/{id}", h.UpdateLease)
			r.With(allow(auth.ResourceLease, auth.ActionDelete)).Delete("/{id}", h.DeleteLease)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(authn)
			r.With(allow(auth.ResourcePayment, auth.ActionList)).Get("/", h.ListPayments)
			r.With(allow(auth.ResourcePayment, auth.ActionList)).Get("/merchant/{id}", h.MerchantPayments)
			r.With(allow(auth.ResourcePayment, auth.ActionRead)).Get("/{id}", h.GetPayment)
			r.With(allow(auth.ResourcePayment, auth.ActionCreate)).Post("/", h.RecordPayment)
			r.With(allow(auth.ResourcePayment, auth.ActionUpdate)).Put("/{id}", h.UpdatePayment)
			r.With(allow(auth.ResourcePayment, auth.ActionDelete)).Delete("/{id}", h.DeletePayment)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Use(authn)
			r.With(allow(auth.ResourceEmployee, auth.ActionList)).Get("/", h.ListEmployees)
			r.With(allow(auth.ResourceEmployee, auth.ActionManage)).Get("/stats/salaries", h.SalaryStats)
			r.With(allow(auth.ResourceEmployee, auth.ActionRead)).Get("/{id}", h.GetEmployee)
			r.With(allow(auth.ResourceEmployee, auth.ActionCreate)).Post("/", h.CreateEmployee)
			r.With(allow(auth.ResourceEmployee, auth.ActionUpdate)).Put("/{id}", h.UpdateEmployee)
			r.With(allow(auth.ResourceEmployee, auth.ActionDelete)).Delete("/{id}", h.DeleteEmployee)
			r.With(allow(auth.ResourceEmployee, auth.ActionManage)).Get("/{id}/salaries", h.SalaryHistory)
			r.With(allow(auth.ResourceEmployee, auth.ActionManage)).Post("/{id}/salaries", h.PaySalary)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{id}", h.GetProduct)
			r.With(authn, allow(auth.ResourceProduct, auth.ActionCreate)).Post("/", h.CreateProduct)
			r.With(authn, allow(auth.ResourceProduct, auth.ActionUpdate)).Put("/{id}", h.UpdateProduct)
			r.With(authn, allow(auth.ResourceProduct, auth.ActionDelete)).Delete("/{id}", h.DeleteProduct)
			r.With(authn, allow(auth.ResourceProduct, auth.ActionUpdate)).Patch("/{id}/toggle", h.ToggleProduct)
			r.With(authn, allow(auth.ResourceProduct, auth.ActionUpdate)).Patch("/{id}/stock", h.SetProductStock)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authn)
			r.With(allow(auth.ResourceCart, auth.ActionRead)).Get("/", h.GetCart)
			r.With(allow(auth.ResourceCart, auth.ActionRead)).Get("/total", h.CartTotal)
			r.With(allow(auth.ResourceCart, auth.ActionUpdate)).Post("/items", h.AddToCart)
			r.With(allow(auth.ResourceCart, auth.ActionUpdate)).Put("/items/{productID}", h.UpdateCartItem)
			r.With(allow(auth.ResourceCart, auth.ActionUpdate)).Delete("/items/{productID}", h.RemoveFromCart)
			r.With(allow(auth.ResourceCart, auth.ActionUpdate)).Delete("/", h.ClearCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authn)
			r.With(allow(auth.ResourceOrder, auth.ActionPlace)).Post("/", h.PlaceOrder)
			r.With(allow(auth.ResourceOrder, auth.ActionReadOwn)).Get("/mine", h.MyOrders)
			r.With(allow(auth.ResourceOrder, auth.ActionList)).Get("/", h.ListOrders)
			r.With(allow(auth.ResourceOrder, auth.ActionRead)).Get("/{id}", h.GetOrder)
			r.With(allow(auth.ResourceOrder, auth.ActionUpdate)).Patch("/{id}/status", h.ChangeOrderStatus)
			r.With(allow(auth.ResourceOrder, auth.ActionUpdate)).Patch("/{id}/payment", h.MarkOrderPaid)
			if h.history != nil {
				r.With(allow(auth.ResourceOrder, auth.ActionList)).Get("/{id}/events", h.OrderEvents)
			}
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(authn, allow(auth.ResourceDashboard, auth.ActionRead))
			r.Get("/stats", h.DashboardStats)
			r.Get("/revenue/{year}", h.YearlyRevenue)
			r.Get("/sales", h.Sales)
		})
	})

	return r
}

func allow(resource auth.Resource, action auth.Action) func(http.Handler) http.Handler {
	return middleware.Authorize(resource, action)
}
