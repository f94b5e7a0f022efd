package http

import (
	"net/http"

	"find-my-doctor/internal/delivery/http/handler"
	"find-my-doctor/internal/delivery/http/middleware"
	"find-my-doctor/pkg/response"

	"github.com/gorilla/mux"
)

type Router struct {
	router             *mux.Router
	authHandler        *handler.AuthHandler
	doctorHandler      *handler.DoctorHandler
	appointmentHandler *handler.AppointmentHandler
	bookingHandler     *handler.BookingHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
	loggingMiddleware  *middleware.LoggingMiddleware
	timeoutMiddleware  func(http.Handler) http.Handler
}

func NewRouter(
	authHandler *handler.AuthHandler,
	doctorHandler *handler.DoctorHandler,
	appointmentHandler *handler.AppointmentHandler,
	bookingHandler *handler.BookingHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
	timeoutMiddleware func(http.Handler) http.Handler,
) *Router {
	return &Router{
		router:             mux.NewRouter(),
		authHandler:        authHandler,
		doctorHandler:      doctorHandler,
		appointmentHandler: appointmentHandler,
		bookingHandler:     bookingHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
		loggingMiddleware:  loggingMiddleware,
		timeoutMiddleware:  timeoutMiddleware,
	}
}

// Setup mounts every route at the root and again under /api/v1. Logging
// and CORS wrap the whole router so preflight and unmatched requests pass
// through them too.
func (r *Router) Setup() http.Handler {
	r.register(r.router)
	r.register(r.router.PathPrefix("/api/v1").Subrouter())

	r.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	if r.timeoutMiddleware != nil {
		r.router.Use(r.timeoutMiddleware)
	}

	return r.loggingMiddleware.Handle(r.corsMiddleware.Handle(r.router))
}

func (r *Router) register(api *mux.Router) {
	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Doctor directory (public reads)
	api.HandleFunc("/doctors", r.doctorHandler.SearchDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)

	// Doctor management (admin)
	doctorAdmin := api.PathPrefix("/doctors").Subrouter()
	doctorAdmin.Use(r.authMiddleware.Authenticate)
	doctorAdmin.Use(middleware.RequireAdmin)
	doctorAdmin.HandleFunc("", r.doctorHandler.CreateDoctor).Methods(http.MethodPost)
	doctorAdmin.HandleFunc("/{id}", r.doctorHandler.UpdateDoctor).Methods(http.MethodPut)
	doctorAdmin.HandleFunc("/{id}", r.doctorHandler.DeleteDoctor).Methods(http.MethodDelete)

	// Appointments (patient)
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.HandleFunc("/book", r.appointmentHandler.BookAppointment).Methods(http.MethodPost)
	appointments.HandleFunc("/mine", r.appointmentHandler.GetMyAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("/cancel/{id}", r.appointmentHandler.CancelAppointment).Methods(http.MethodDelete)

	// Appointment completion (admin)
	appointmentAdmin := api.PathPrefix("/appointments").Subrouter()
	appointmentAdmin.Use(r.authMiddleware.Authenticate)
	appointmentAdmin.Use(middleware.RequireAdmin)
	appointmentAdmin.HandleFunc("/{id}/complete", r.appointmentHandler.CompleteAppointment).Methods(http.MethodPatch)

	// Legacy booking routes
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(r.authMiddleware.Authenticate)
	bookings.HandleFunc("", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	bookings.HandleFunc("", r.bookingHandler.GetBookings).Methods(http.MethodGet)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	response.Success(w, http.StatusOK, "OK", map[string]string{"status": "ok"})
}
