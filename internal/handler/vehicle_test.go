package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/togocar/fleet-service/internal/errs"
	"github.com/togocar/fleet-service/internal/handler"
	service_mocks "github.com/togocar/fleet-service/internal/handler/mocks"
	"github.com/togocar/fleet-service/internal/model"
	md "github.com/togocar/fleet-service/pkg/middleware"
	"github.com/togocar/fleet-service/pkg/validate"
)

func TestHandler_CreateVehicle(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockFleetService)

	body := `{"brand":"Toyota","model":"Land Cruiser","year":2023,"plate":"TG-1000-A","category":"SUV"}`
	req := model.CreateVehicleRequest{
		Brand:    "Toyota",
		Model:    "Land Cruiser",
		Year:     2023,
		Plate:    "TG-1000-A",
		Category: model.CategorySUV,
	}

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		body         string
		asRole       func(*http.Request)
		response     response
	}{
		{
			name: "created",
			mockBehavior: func(r *service_mocks.MockFleetService) {
				r.EXPECT().
					CreateVehicle(gomock.Any(), req).
					Return(model.Vehicle{ID: vehicleID, Brand: "Toyota", Model: "Land Cruiser", Year: 2023,
						Plate: "TG-1000-A", Category: model.CategorySUV, Status: model.VehicleAvailable}, nil)
			},
			body:   body,
			asRole: asAdmin,
			response: response{
				expectedCode: http.StatusCreated,
			},
		},
		{
			name: "err. duplicate plate",
			mockBehavior: func(r *service_mocks.MockFleetService) {
				r.EXPECT().
					CreateVehicle(gomock.Any(), req).
					Return(model.Vehicle{}, errs.ErrConflict)
			},
			body:   body,
			asRole: asAdmin,
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"booking conflict"}`,
			},
		},
		{
			name:         "err. bad category",
			mockBehavior: func(r *service_mocks.MockFleetService) {},
			body:         `{"brand":"Toyota","model":"Land Cruiser","year":2023,"plate":"TG-1000-A","category":"SPACESHIP"}`,
			asRole:       asAdmin,
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
		{
			name:         "err. not admin",
			mockBehavior: func(r *service_mocks.MockFleetService) {},
			body:         body,
			asRole:       asUser,
			response: response{
				expectedCode: http.StatusForbidden,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockFleetService(c)
			h := handler.New(svc, zap.NewExample().Named("test"))

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/vehicles", h.CreateVehicle, md.AuthContext, md.AdminOnly)

			r := httptest.NewRequest(http.MethodPost, "/vehicles", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			tt.asRole(r)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_GetVehicle(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockFleetService(c)
	svc.EXPECT().GetVehicle(gomock.Any(), vehicleID).Return(model.Vehicle{}, errs.ErrNotFound)
	h := handler.New(svc, zap.NewExample().Named("test"))

	e := echo.New()
	e.GET("/vehicles/:id", h.GetVehicle, md.AuthContext)

	r := httptest.NewRequest(http.MethodGet, "/vehicles/"+vehicleID, http.NoBody)
	asUser(r)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_GetVehicle_MalformedID(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockFleetService(c)
	h := handler.New(svc, zap.NewExample().Named("test"))

	e := echo.New()
	e.GET("/vehicles/:id", h.GetVehicle, md.AuthContext)
	e.DELETE("/vehicles/:id", h.DeleteVehicle, md.AuthContext, md.AdminOnly)

	r := httptest.NewRequest(http.MethodGet, "/vehicles/not-a-uuid", http.NoBody)
	asUser(r)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"message":"id must be a uuid"}`, strings.Trim(w.Body.String(), "\n"))

	r = httptest.NewRequest(http.MethodDelete, "/vehicles/not-a-uuid", http.NoBody)
	asAdmin(r)
	w = httptest.NewRecorder()
	e.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
