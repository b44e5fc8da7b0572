package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"flytaxi/internal/dispatch-service/core/domain/dto"
	"flytaxi/internal/dispatch-service/core/domain/model"
	"flytaxi/internal/dispatch-service/core/myerrors"
)

func strp(s string) *string     { return &s }
func floatp(f float64) *float64 { return &f }

func newTestRoster() (*RosterService, *memDriverStore, *memOrderStore) {
	drivers := newMemDriverStore()
	orders := newMemOrderStore()
	rs := NewRosterService(testLogger(), drivers, orders, nil, "test-secret", time.Hour)
	return rs, drivers, orders
}

func TestRegisterDefaults(t *testing.T) {
	rs, drivers, _ := newTestRoster()
	ctx := context.Background()

	resp, err := rs.Register(ctx, dto.RegisterDriverRequestDto{
		Name:       strp("call-7"),
		Phone:      strp("+380501112233"),
		AccessCode: strp("s3cret"),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.DriverID == "" || resp.Approved {
		t.Fatalf("resp = %+v, want generated id and approved=false", resp)
	}

	d, err := drivers.Get(ctx, resp.DriverID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Approved || d.Online {
		t.Error("fresh application should be neither approved nor online")
	}
	if d.PickupKm != NewDriverPickupKm {
		t.Errorf("pickup_km = %v, want %v", d.PickupKm, NewDriverPickupKm)
	}
	if d.PaymentMethod != model.PaymentBoth {
		t.Errorf("payment_method = %q, want both", d.PaymentMethod)
	}
	if len(d.Classes) != 1 || d.Classes[0] != "standard" {
		t.Errorf("classes = %v, want [standard]", d.Classes)
	}
	if d.SecretHash == "" || d.SecretHash == "s3cret" {
		t.Error("access code stored without hashing")
	}
}

func TestRegisterRejectsShortAccessCode(t *testing.T) {
	rs, _, _ := newTestRoster()
	_, err := rs.Register(context.Background(), dto.RegisterDriverRequestDto{AccessCode: strp("ab")})
	if !errors.Is(err, myerrors.ErrInvalidSettings) {
		t.Errorf("err = %v, want ErrInvalidSettings", err)
	}
}

func TestApproveNormalizesClasses(t *testing.T) {
	rs, drivers, _ := newTestRoster()
	ctx := context.Background()

	resp, err := rs.Register(ctx, dto.RegisterDriverRequestDto{AccessCode: strp("s3cret")})
	if err != nil {
		t.Fatal(err)
	}
	if err := rs.Approve(ctx, resp.DriverID, []string{"Стандарт", "комфорт"}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	d, _ := drivers.Get(ctx, resp.DriverID)
	if !d.Approved || d.ApprovedAt == nil {
		t.Error("approval not recorded")
	}
	if len(d.Classes) != 2 || d.Classes[0] != "standard" || d.Classes[1] != "comfort" {
		t.Errorf("classes = %v, want [standard comfort]", d.Classes)
	}
}

func TestLoginIssuesToken(t *testing.T) {
	rs, _, _ := newTestRoster()
	ctx := context.Background()

	resp, err := rs.Register(ctx, dto.RegisterDriverRequestDto{AccessCode: strp("s3cret")})
	if err != nil {
		t.Fatal(err)
	}

	login, err := rs.Login(ctx, dto.LoginRequestDto{
		DriverID:   &resp.DriverID,
		AccessCode: strp("s3cret"),
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	token, err := jwt.Parse(login.Token, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["driver_id"] != resp.DriverID || claims["role"] != "DRIVER" {
		t.Errorf("claims = %v", claims)
	}
}

func TestLoginWrongCode(t *testing.T) {
	rs, _, _ := newTestRoster()
	ctx := context.Background()

	resp, err := rs.Register(ctx, dto.RegisterDriverRequestDto{AccessCode: strp("s3cret")})
	if err != nil {
		t.Fatal(err)
	}
	_, err = rs.Login(ctx, dto.LoginRequestDto{DriverID: &resp.DriverID, AccessCode: strp("wrong")})
	if !errors.Is(err, myerrors.ErrBadCredentials) {
		t.Errorf("err = %v, want ErrBadCredentials", err)
	}
}

func TestGoOnlineGates(t *testing.T) {
	rs, drivers, _ := newTestRoster()
	ctx := context.Background()
	noon := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	rs.now = func() time.Time { return noon }

	unapproved := onlineDriver("d1", 50.45, 30.52)
	unapproved.Approved = false
	unapproved.Online = false
	drivers.Put(ctx, unapproved)

	if err := rs.GoOnline(ctx, "d1"); !errors.Is(err, myerrors.ErrDriverNotAllowed) {
		t.Errorf("unapproved GoOnline: err = %v, want ErrDriverNotAllowed", err)
	}

	approved := unapproved
	approved.Approved = true
	drivers.Put(ctx, approved)

	rs.now = func() time.Time { return time.Date(2026, 8, 28, 3, 30, 0, 0, time.Local) }
	if err := rs.GoOnline(ctx, "d1"); !errors.Is(err, myerrors.ErrDriverNotAllowed) {
		t.Errorf("night GoOnline: err = %v, want ErrDriverNotAllowed", err)
	}

	rs.now = func() time.Time { return noon }
	if err := rs.GoOnline(ctx, "d1"); err != nil {
		t.Fatalf("daytime GoOnline: %v", err)
	}
	d, _ := drivers.Get(ctx, "d1")
	if !d.Online {
		t.Error("driver not marked online")
	}

	if err := rs.GoOffline(ctx, "d1"); err != nil {
		t.Fatalf("GoOffline: %v", err)
	}
	d, _ = drivers.Get(ctx, "d1")
	if d.Online {
		t.Error("driver still online")
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	rs, drivers, _ := newTestRoster()
	ctx := context.Background()
	drivers.Put(ctx, onlineDriver("d1", 50.45, 30.52))

	if err := rs.UpdateSettings(ctx, "d1", dto.SettingsRequestDto{PickupKm: floatp(50)}); !errors.Is(err, myerrors.ErrInvalidSettings) {
		t.Errorf("pickup_km=50: err = %v, want ErrInvalidSettings", err)
	}
	if err := rs.UpdateSettings(ctx, "d1", dto.SettingsRequestDto{PaymentMethod: strp("crypto")}); !errors.Is(err, myerrors.ErrInvalidSettings) {
		t.Errorf("payment=crypto: err = %v, want ErrInvalidSettings", err)
	}

	err := rs.UpdateSettings(ctx, "d1", dto.SettingsRequestDto{
		PickupKm:      floatp(7.5),
		PaymentMethod: strp(model.PaymentCard),
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	d, _ := drivers.Get(ctx, "d1")
	if d.PickupKm != 7.5 || d.PaymentMethod != model.PaymentCard {
		t.Errorf("settings not applied: %+v", d)
	}
}

func TestUpdateLocationPersists(t *testing.T) {
	rs, drivers, _ := newTestRoster()
	ctx := context.Background()
	d := onlineDriver("d1", 50.45, 30.52)
	d.LastLocation = nil
	drivers.Put(ctx, d)

	if err := rs.UpdateLocation(ctx, "d1", model.Coords{Lat: 91, Lon: 0}); !errors.Is(err, myerrors.ErrInvalidSettings) {
		t.Errorf("out-of-range coords: err = %v, want ErrInvalidSettings", err)
	}

	if err := rs.UpdateLocation(ctx, "d1", model.Coords{Lat: 50.40, Lon: 30.60}); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	got, _ := drivers.Get(ctx, "d1")
	if got.LastLocation == nil || got.LastLocation.Lat != 50.40 {
		t.Errorf("location not persisted: %+v", got.LastLocation)
	}
}

func TestOverviewCounts(t *testing.T) {
	rs, drivers, orders := newTestRoster()
	ctx := context.Background()

	for i, st := range []model.OrderStatus{model.StatusSearching, model.StatusSearching, model.StatusDone} {
		o := searchingOrder(fmt.Sprintf("o%d", i), 50.45, 30.52)
		o.Status = st
		orders.Put(ctx, o)
	}
	on := onlineDriver("d1", 50.45, 30.52)
	off := onlineDriver("d2", 50.45, 30.52)
	off.Online = false
	drivers.Put(ctx, on)
	drivers.Put(ctx, off)

	got, err := rs.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if got.OrdersByStatus["searching"] != 2 || got.OrdersByStatus["done"] != 1 {
		t.Errorf("orders_by_status = %v", got.OrdersByStatus)
	}
	if got.DriversOnline != 1 || got.DriversTotal != 2 {
		t.Errorf("drivers online/total = %d/%d, want 1/2", got.DriversOnline, got.DriversTotal)
	}
}
