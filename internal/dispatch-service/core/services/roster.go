package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"flytaxi/internal/dispatch-service/core/domain/dto"
	"flytaxi/internal/dispatch-service/core/domain/model"
	"flytaxi/internal/dispatch-service/core/myerrors"
	"flytaxi/internal/dispatch-service/core/ports"
	"flytaxi/internal/mylogger"
	"flytaxi/internal/observability"
)

const (
	HashFactor = 10

	MinAccessCodeLen = 4
	MaxAccessCodeLen = 64

	MinPickupKm = 0.5
	MaxPickupKm = 10.0

	// new drivers start with the conservative radius; dispatch falls back
	// to the configured default when a roster entry has none
	NewDriverPickupKm = 3.0

	// drivers may go online between these local hours
	WorkdayStartHour = 5
	WorkdayEndHour   = 23
)

var allowedPaymentMethods = map[string]bool{
	model.PaymentCash: true,
	model.PaymentCard: true,
	model.PaymentBoth: true,
}

type RosterService struct {
	mylog        mylogger.Logger
	drivers      ports.IDriverStore
	orders       ports.IOrderStore
	locator      ports.ILocationIndex // optional
	accessSecret string
	tokenTTL     time.Duration

	now func() time.Time
}

func NewRosterService(
	mylog mylogger.Logger,
	drivers ports.IDriverStore,
	orders ports.IOrderStore,
	locator ports.ILocationIndex,
	accessSecret string,
	tokenTTL time.Duration,
) *RosterService {
	return &RosterService{
		mylog:        mylog,
		drivers:      drivers,
		orders:       orders,
		locator:      locator,
		accessSecret: accessSecret,
		tokenTTL:     tokenTTL,
		now:          time.Now,
	}
}

// Register files a driver application. The entry stays unapproved until an
// operator confirms it with the vehicle classes the driver may serve.
func (rs *RosterService) Register(ctx context.Context, req dto.RegisterDriverRequestDto) (dto.RegisterDriverResponseDto, error) {
	log := rs.mylog.Action("Register")

	if req.AccessCode == nil || len(*req.AccessCode) < MinAccessCodeLen || len(*req.AccessCode) > MaxAccessCodeLen {
		return dto.RegisterDriverResponseDto{}, fmt.Errorf("%w: access code must be %d-%d characters",
			myerrors.ErrInvalidSettings, MinAccessCodeLen, MaxAccessCodeLen)
	}

	driverID := ""
	if req.ID != nil {
		driverID = *req.ID
	}
	if driverID == "" {
		driverID = uuid.NewString()
	}

	if existing, err := rs.drivers.Get(ctx, driverID); err == nil && existing.Approved {
		return dto.RegisterDriverResponseDto{}, fmt.Errorf("driver %s already registered and approved", driverID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*req.AccessCode), HashFactor)
	if err != nil {
		return dto.RegisterDriverResponseDto{}, fmt.Errorf("hash access code: %w", err)
	}

	driver := model.Driver{
		ID:       driverID,
		Callsign: deref(req.Name),
		Phone:    deref(req.Phone),
		Username: deref(req.Username),
		Car: model.Car{
			Brand: deref(req.CarBrand),
			Model: deref(req.CarModel),
			Color: deref(req.CarColor),
			Plate: deref(req.CarPlate),
		},
		Approved:      false,
		Online:        false,
		PickupKm:      NewDriverPickupKm,
		PaymentMethod: model.PaymentBoth,
		Classes:       []string{"standard"},
		SecretHash:    string(hash),
	}
	if err := rs.drivers.Put(ctx, driver); err != nil {
		return dto.RegisterDriverResponseDto{}, fmt.Errorf("persist driver application: %w", err)
	}

	log.Info("driver application filed", "driver_id", driverID)
	return dto.RegisterDriverResponseDto{
		DriverID: driverID,
		Approved: false,
		Message:  "application received, awaiting approval",
	}, nil
}

// Approve confirms an application and records which vehicle classes the
// driver may serve.
func (rs *RosterService) Approve(ctx context.Context, driverID string, classes []string) error {
	driver, err := rs.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}

	if len(classes) == 0 {
		classes = []string{"standard"}
	}
	normalized := make([]string, 0, len(classes))
	for _, c := range classes {
		normalized = append(normalized, NormalizeTariff(c))
	}

	approvedAt := rs.now()
	driver.Approved = true
	driver.ApprovedAt = &approvedAt
	driver.Classes = normalized

	if err := rs.drivers.Put(ctx, driver); err != nil {
		return fmt.Errorf("persist approval: %w", err)
	}
	rs.mylog.Action("Approve").Info("driver approved", "driver_id", driverID, "classes", normalized)
	return nil
}

// Login checks the access code against the stored hash and issues a signed
// driver token.
func (rs *RosterService) Login(ctx context.Context, req dto.LoginRequestDto) (dto.LoginResponseDto, error) {
	if req.DriverID == nil || req.AccessCode == nil {
		return dto.LoginResponseDto{}, myerrors.ErrBadCredentials
	}

	driver, err := rs.drivers.Get(ctx, *req.DriverID)
	if err != nil {
		return dto.LoginResponseDto{}, myerrors.ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(driver.SecretHash), []byte(*req.AccessCode)) != nil {
		return dto.LoginResponseDto{}, myerrors.ErrBadCredentials
	}

	expiresAt := rs.now().Add(rs.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"driver_id": driver.ID,
		"role":      "DRIVER",
		"exp":       expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(rs.accessSecret))
	if err != nil {
		return dto.LoginResponseDto{}, fmt.Errorf("sign token: %w", err)
	}

	return dto.LoginResponseDto{
		Token:     signed,
		ExpiresIn: int64(rs.tokenTTL.Seconds()),
	}, nil
}

// GoOnline puts an approved driver into the offer pool, inside the local
// working window only.
func (rs *RosterService) GoOnline(ctx context.Context, driverID string) error {
	driver, err := rs.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}
	if !driver.Approved {
		return fmt.Errorf("%w: not approved", myerrors.ErrDriverNotAllowed)
	}
	hour := rs.now().Local().Hour()
	if hour < WorkdayStartHour || hour > WorkdayEndHour {
		return fmt.Errorf("%w: outside %02d:00-%02d:59", myerrors.ErrDriverNotAllowed,
			WorkdayStartHour, WorkdayEndHour)
	}

	driver.Online = true
	if err := rs.drivers.Put(ctx, driver); err != nil {
		return fmt.Errorf("persist online flag: %w", err)
	}
	rs.refreshOnlineGauge(ctx)
	rs.mylog.Action("GoOnline").Info("driver online", "driver_id", driverID)
	return nil
}

func (rs *RosterService) GoOffline(ctx context.Context, driverID string) error {
	driver, err := rs.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}
	driver.Online = false
	if err := rs.drivers.Put(ctx, driver); err != nil {
		return fmt.Errorf("persist offline flag: %w", err)
	}
	rs.refreshOnlineGauge(ctx)
	rs.mylog.Action("GoOffline").Info("driver offline", "driver_id", driverID)
	return nil
}

func (rs *RosterService) UpdateLocation(ctx context.Context, driverID string, c model.Coords) error {
	if !c.Valid() {
		return fmt.Errorf("%w: coordinates out of range", myerrors.ErrInvalidSettings)
	}
	driver, err := rs.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}
	driver.LastLocation = &c
	if err := rs.drivers.Put(ctx, driver); err != nil {
		return fmt.Errorf("persist location: %w", err)
	}
	if rs.locator != nil {
		if err := rs.locator.Update(ctx, driverID, c); err != nil {
			// roster stays authoritative, the index catches up next update
			rs.mylog.Action("UpdateLocation").Warn("geo index update failed", "driver_id", driverID)
		}
	}
	return nil
}

func (rs *RosterService) UpdateSettings(ctx context.Context, driverID string, req dto.SettingsRequestDto) error {
	driver, err := rs.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}

	if req.PickupKm != nil {
		if *req.PickupKm < MinPickupKm || *req.PickupKm > MaxPickupKm {
			return fmt.Errorf("%w: pickup_km must be %.1f-%.1f", myerrors.ErrInvalidSettings,
				MinPickupKm, MaxPickupKm)
		}
		driver.PickupKm = *req.PickupKm
	}
	if req.PaymentMethod != nil {
		if !allowedPaymentMethods[*req.PaymentMethod] {
			return fmt.Errorf("%w: payment_method must be cash, card or both", myerrors.ErrInvalidSettings)
		}
		driver.PaymentMethod = *req.PaymentMethod
	}

	if err := rs.drivers.Put(ctx, driver); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

func (rs *RosterService) Status(ctx context.Context, driverID string) (dto.DriverStatusResponseDto, error) {
	driver, err := rs.drivers.Get(ctx, driverID)
	if err != nil {
		return dto.DriverStatusResponseDto{}, err
	}
	return dto.DriverStatusResponseDto{
		DriverID:      driver.ID,
		Approved:      driver.Approved,
		Online:        driver.Online,
		PickupKm:      driver.PickupKm,
		PaymentMethod: driver.PaymentMethod,
		Classes:       driver.Classes,
		ActiveOrderID: driver.ActiveOrderID,
		LastLocation:  driver.LastLocation,
		Today:         driver.Today,
	}, nil
}

func (rs *RosterService) Overview(ctx context.Context) (dto.OverviewResponseDto, error) {
	orders, err := rs.orders.All(ctx)
	if err != nil {
		return dto.OverviewResponseDto{}, err
	}
	drivers, err := rs.drivers.All(ctx)
	if err != nil {
		return dto.OverviewResponseDto{}, err
	}

	byStatus := make(map[string]int)
	for _, o := range orders {
		byStatus[string(o.Status)]++
	}
	online := 0
	for _, d := range drivers {
		if d.Online {
			online++
		}
	}
	return dto.OverviewResponseDto{
		OrdersByStatus: byStatus,
		DriversOnline:  online,
		DriversTotal:   len(drivers),
	}, nil
}

func (rs *RosterService) refreshOnlineGauge(ctx context.Context) {
	drivers, err := rs.drivers.All(ctx)
	if err != nil {
		return
	}
	online := 0
	for _, d := range drivers {
		if d.Online {
			online++
		}
	}
	observability.DriversOnline.Set(float64(online))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
