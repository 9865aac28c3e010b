package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"food-ordering-api/apperror"
	"food-ordering-api/models"
	"food-ordering-api/policy"
	"food-ordering-api/repository"
)

type CreateRestaurantInput struct {
	Name      string         `json:"name" validate:"required"`
	Address   string         `json:"address" validate:"required"`
	Country   models.Country `json:"country" validate:"required,oneof=INDIA AMERICA"`
	ManagerID string         `json:"managerId" validate:"required,uuid"`
}

// UpdateRestaurantInput is a partial update; nil fields are left unchanged.
type UpdateRestaurantInput struct {
	Name      *string         `json:"name" validate:"omitempty,min=1"`
	Address   *string         `json:"address" validate:"omitempty,min=1"`
	Country   *models.Country `json:"country"`
	ManagerID *string         `json:"managerId" validate:"omitempty,uuid"`
}

type CreateMenuItemInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	IsAvailable *bool   `json:"isAvailable"`
}

type UpdateMenuItemInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	IsAvailable *bool    `json:"isAvailable"`
}

type RestaurantService struct {
	restaurants repository.RestaurantRepository
	menu        repository.MenuItemRepository
	users       repository.UserRepository
	policy      *policy.Engine
	logger      *slog.Logger
}

func NewRestaurantService(restaurants repository.RestaurantRepository, menu repository.MenuItemRepository,
	users repository.UserRepository, engine *policy.Engine, logger *slog.Logger) *RestaurantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RestaurantService{
		restaurants: restaurants,
		menu:        menu,
		users:       users,
		policy:      engine,
		logger:      logger,
	}
}

// ListVisible returns the active restaurants the caller may see, each with its
// available menu. Menus are loaded in one query for the whole page.
func (s *RestaurantService) ListVisible(ctx context.Context, p *models.Principal) ([]models.Restaurant, error) {
	if err := s.policy.Authorize(p, policy.ActionViewRestaurant, policy.Target{}); err != nil {
		return nil, err
	}
	country, scoped := policy.CountryFilter(p)
	if !scoped {
		country = ""
	}
	rests, err := s.restaurants.ListActive(ctx, country)
	if err != nil {
		return nil, storeErr(err, "restaurants")
	}
	if err := s.attachMenus(ctx, rests); err != nil {
		return nil, err
	}
	return rests, nil
}

// Get resolves any active restaurant by id. Lookups by id are deliberately
// not country-filtered.
func (s *RestaurantService) Get(ctx context.Context, p *models.Principal, id string) (*models.Restaurant, error) {
	if err := s.policy.Authorize(p, policy.ActionViewRestaurant, policy.Target{}); err != nil {
		return nil, err
	}
	if err := parseID(id, "restaurant"); err != nil {
		return nil, err
	}
	return s.view(ctx, id)
}

func (s *RestaurantService) Create(ctx context.Context, p *models.Principal, in CreateRestaurantInput) (*models.Restaurant, error) {
	if err := s.policy.Authorize(p, policy.ActionManageRestaurants, policy.Target{}); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.checkManager(ctx, in.ManagerID, in.Country); err != nil {
		return nil, err
	}

	rest := &models.Restaurant{
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		Country:   in.Country,
		IsActive:  true,
		ManagerID: in.ManagerID,
	}
	if err := s.restaurants.Create(ctx, rest); err != nil {
		return nil, storeErr(err, "restaurant")
	}
	s.logger.Info("restaurant created",
		slog.String("restaurant_id", rest.ID),
		slog.String("country", string(rest.Country)),
		slog.String("actor_id", p.ID),
	)
	return s.view(ctx, rest.ID)
}

// Update patches an active restaurant inside the caller's own country. The
// country never changes after creation.
func (s *RestaurantService) Update(ctx context.Context, p *models.Principal, id string, in UpdateRestaurantInput) (*models.Restaurant, error) {
	rest, err := s.loadManageable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Country != nil && *in.Country != rest.Country {
		return nil, apperror.Validation("restaurant country cannot be changed")
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		fields["address"] = strings.TrimSpace(*in.Address)
	}
	if in.ManagerID != nil {
		if err := s.checkManager(ctx, *in.ManagerID, rest.Country); err != nil {
			return nil, err
		}
		fields["manager_id"] = *in.ManagerID
	}
	if err := s.restaurants.Update(ctx, id, fields); err != nil {
		return nil, storeErr(err, "restaurant")
	}
	s.logger.Info("restaurant updated", slog.String("restaurant_id", id), slog.String("actor_id", p.ID))
	return s.view(ctx, id)
}

// Deactivate soft-deletes a restaurant with the same scoping as Update.
func (s *RestaurantService) Deactivate(ctx context.Context, p *models.Principal, id string) error {
	if _, err := s.loadManageable(ctx, p, id); err != nil {
		return err
	}
	if err := s.restaurants.Deactivate(ctx, id); err != nil {
		return storeErr(err, "restaurant")
	}
	s.logger.Info("restaurant deactivated", slog.String("restaurant_id", id), slog.String("actor_id", p.ID))
	return nil
}

func (s *RestaurantService) CreateMenuItem(ctx context.Context, p *models.Principal, restaurantID string, in CreateMenuItemInput) (*models.MenuItem, error) {
	if err := s.policy.Authorize(p, policy.ActionManageMenu, policy.Target{}); err != nil {
		return nil, err
	}
	if err := parseID(restaurantID, "restaurant"); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if _, err := s.restaurants.GetActive(ctx, restaurantID); err != nil {
		return nil, storeErr(err, "restaurant")
	}

	item := &models.MenuItem{
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Price:        in.Price,
		IsAvailable:  in.IsAvailable == nil || *in.IsAvailable,
	}
	if err := s.menu.Create(ctx, item); err != nil {
		return nil, storeErr(err, "menu item")
	}
	s.logger.Info("menu item created",
		slog.String("menu_item_id", item.ID),
		slog.String("restaurant_id", restaurantID),
		slog.String("actor_id", p.ID),
	)
	return item, nil
}

func (s *RestaurantService) UpdateMenuItem(ctx context.Context, p *models.Principal, id string, in UpdateMenuItemInput) (*models.MenuItem, error) {
	if err := s.policy.Authorize(p, policy.ActionManageMenu, policy.Target{}); err != nil {
		return nil, err
	}
	if err := parseID(id, "menu item"); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if _, err := s.menu.GetByID(ctx, id); err != nil {
		return nil, storeErr(err, "menu item")
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.IsAvailable != nil {
		fields["is_available"] = *in.IsAvailable
	}
	if err := s.menu.Update(ctx, id, fields); err != nil {
		return nil, storeErr(err, "menu item")
	}

	item, err := s.menu.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "menu item")
	}
	return item, nil
}

func (s *RestaurantService) DeleteMenuItem(ctx context.Context, p *models.Principal, id string) error {
	if err := s.policy.Authorize(p, policy.ActionManageMenu, policy.Target{}); err != nil {
		return err
	}
	if err := parseID(id, "menu item"); err != nil {
		return err
	}
	if err := s.menu.Delete(ctx, id); err != nil {
		return storeErr(err, "menu item")
	}
	s.logger.Info("menu item deleted", slog.String("menu_item_id", id), slog.String("actor_id", p.ID))
	return nil
}

// loadManageable authorizes a restaurant write and returns the target. A
// restaurant outside the caller's country is reported as missing.
func (s *RestaurantService) loadManageable(ctx context.Context, p *models.Principal, id string) (*models.Restaurant, error) {
	if err := s.policy.Authorize(p, policy.ActionManageRestaurants, policy.Target{}); err != nil {
		return nil, err
	}
	if err := parseID(id, "restaurant"); err != nil {
		return nil, err
	}
	rest, err := s.restaurants.GetActive(ctx, id)
	if err != nil {
		return nil, storeErr(err, "restaurant")
	}
	if !policy.CanManageInCountry(p, rest.Country) {
		s.logger.Warn("restaurant outside actor country",
			slog.String("restaurant_id", id),
			slog.String("restaurant_country", string(rest.Country)),
			slog.String("actor_id", p.ID),
			slog.String("actor_country", string(p.EffectiveCountry())),
		)
		return nil, apperror.NotFound("restaurant not found or not accessible")
	}
	return rest, nil
}

// checkManager enforces that a restaurant's manager is a MANAGER of the same country.
func (s *RestaurantService) checkManager(ctx context.Context, managerID string, country models.Country) error {
	if err := parseID(managerID, "manager"); err != nil {
		return err
	}
	manager, err := s.users.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Validation("manager does not exist")
		}
		return apperror.Internal("failed to load manager", err)
	}
	if manager.Role != models.RoleManager {
		return apperror.Validation("assigned user is not a MANAGER")
	}
	if manager.Country != country {
		return apperror.Validation(fmt.Sprintf("manager country %s does not match restaurant country %s", manager.Country, country))
	}
	return nil
}

func (s *RestaurantService) view(ctx context.Context, id string) (*models.Restaurant, error) {
	rest, err := s.restaurants.GetActive(ctx, id)
	if err != nil {
		return nil, storeErr(err, "restaurant")
	}
	one := []models.Restaurant{*rest}
	if err := s.attachMenus(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *RestaurantService) attachMenus(ctx context.Context, rests []models.Restaurant) error {
	if len(rests) == 0 {
		return nil
	}
	ids := make([]string, len(rests))
	for i := range rests {
		ids[i] = rests[i].ID
	}
	items, err := s.menu.ListAvailableByRestaurants(ctx, ids)
	if err != nil {
		return storeErr(err, "menu")
	}
	byRestaurant := make(map[string][]models.MenuItem, len(rests))
	for _, item := range items {
		byRestaurant[item.RestaurantID] = append(byRestaurant[item.RestaurantID], item)
	}
	for i := range rests {
		rests[i].Menu = byRestaurant[rests[i].ID]
	}
	return nil
}
