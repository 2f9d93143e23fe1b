package db

import (
	"errors"
	"fmt"
	"strings"

	"podium-server-go/models"
)

var (
	// ErrVIPNotFound is returned when a VIP id is unknown.
	ErrVIPNotFound = errors.New("vip not found")
	// ErrVIPIDRequired is returned when a VIP has no id.
	ErrVIPIDRequired = errors.New("vip id is required")
	// ErrVIPIDInvalid is returned for ids that contain a path separator.
	ErrVIPIDInvalid = errors.New("vip id must not contain path separators")
)

// VIPByID returns a single VIP.
func (s *DocumentStore) VIPByID(id string) (models.VIP, error) {
	for _, v := range s.VIPs() {
		if v.ID == id {
			return v, nil
		}
	}
	return models.VIP{}, fmt.Errorf("%w: %s", ErrVIPNotFound, id)
}

// UpsertVIP adds a VIP or updates the one with the same id. The IOC code is
// upper-cased. An existing photo is kept when the update has none.
func (s *DocumentStore) UpsertVIP(vip models.VIP) (models.VIP, error) {
	vip = cleanVIP(vip)
	if err := checkVIPID(vip.ID); err != nil {
		return vip, err
	}
	vips := s.VIPs()
	found := false
	for i := range vips {
		if vips[i].ID == vip.ID {
			if vip.Photo == "" {
				vip.Photo = vips[i].Photo
			}
			vips[i] = vip
			found = true
			break
		}
	}
	if !found {
		vips = append(vips, vip)
	}
	if err := s.SaveVIPs(vips); err != nil {
		return vip, fmt.Errorf("failed to save vip %s: %w", vip.ID, err)
	}
	return vip, nil
}

// UpdateVIP replaces the VIP stored under id; the id itself may change.
func (s *DocumentStore) UpdateVIP(id string, vip models.VIP) (models.VIP, error) {
	vip = cleanVIP(vip)
	if err := checkVIPID(vip.ID); err != nil {
		return vip, err
	}
	vips := s.VIPs()
	for i := range vips {
		if vips[i].ID != id {
			continue
		}
		if vip.Photo == "" {
			vip.Photo = vips[i].Photo
		}
		vips[i] = vip
		if err := s.SaveVIPs(vips); err != nil {
			return vip, fmt.Errorf("failed to save vip %s: %w", vip.ID, err)
		}
		return vip, nil
	}
	return vip, fmt.Errorf("%w: %s", ErrVIPNotFound, id)
}

// DeleteVIPs removes the VIPs with the given ids and reports how many went.
func (s *DocumentStore) DeleteVIPs(ids ...string) (int, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	vips := s.VIPs()
	kept := make([]models.VIP, 0, len(vips))
	for _, v := range vips {
		if !drop[v.ID] {
			kept = append(kept, v)
		}
	}
	if err := s.SaveVIPs(kept); err != nil {
		return 0, fmt.Errorf("failed to delete vips: %w", err)
	}
	return len(vips) - len(kept), nil
}

func checkVIPID(id string) error {
	if id == "" {
		return ErrVIPIDRequired
	}
	if !models.SafeID(id) {
		return fmt.Errorf("%w: %q", ErrVIPIDInvalid, id)
	}
	return nil
}

func cleanVIP(vip models.VIP) models.VIP {
	vip.ID = strings.TrimSpace(vip.ID)
	vip.Name = strings.TrimSpace(vip.Name)
	vip.Role = strings.TrimSpace(vip.Role)
	vip.IOC = strings.ToUpper(strings.TrimSpace(vip.IOC))
	vip.Photo = strings.TrimSpace(vip.Photo)
	return vip
}
