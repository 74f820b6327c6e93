package control

import (
	"context"
	"fmt"
	"net/url"
)

const (
	pathPresetsGet      = "/gopro/camera/presets/get"
	pathPresetsLoad     = "/gopro/camera/presets/load"
	pathPresetsSetGroup = "/gopro/camera/presets/set_group"
)

// PresetCatalog is the camera's full preset inventory: groups of named
// presets, each selectable by numeric id.
type PresetCatalog struct {
	Groups []PresetGroup `json:"presetGroupArray"`
}

type PresetGroup struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Presets []Preset `json:"presets"`
}

type Preset struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (c *Client) GetPresets(ctx context.Context) (PresetCatalog, error) {
	var catalog PresetCatalog
	if err := c.getJSON(ctx, pathPresetsGet, nil, &catalog); err != nil {
		return PresetCatalog{}, err
	}
	return catalog, nil
}

// LoadPresetByName resolves groupName/presetName against a freshly
// fetched catalog by exact match and loads the preset by id. A lookup
// miss fails before any load request is issued.
func (c *Client) LoadPresetByName(ctx context.Context, groupName, presetName string) error {
	catalog, err := c.GetPresets(ctx)
	if err != nil {
		return err
	}

	group, err := catalog.findGroup(groupName)
	if err != nil {
		return err
	}
	for _, preset := range group.Presets {
		if preset.Name == presetName {
			return c.loadByID(ctx, pathPresetsLoad, preset.ID)
		}
	}
	return fmt.Errorf("%w: preset %q in group %q", ErrPresetNotFound, presetName, groupName)
}

// LoadPresetGroup switches the camera to the named preset group.
func (c *Client) LoadPresetGroup(ctx context.Context, groupName string) error {
	catalog, err := c.GetPresets(ctx)
	if err != nil {
		return err
	}
	group, err := catalog.findGroup(groupName)
	if err != nil {
		return err
	}
	return c.loadByID(ctx, pathPresetsSetGroup, group.ID)
}

func (catalog PresetCatalog) findGroup(name string) (PresetGroup, error) {
	for _, group := range catalog.Groups {
		if group.Name == name {
			return group, nil
		}
	}
	return PresetGroup{}, fmt.Errorf("%w: group %q", ErrPresetNotFound, name)
}

func (c *Client) loadByID(ctx context.Context, path string, id int) error {
	query := url.Values{}
	query.Set("id", itoa(id))
	_, err := c.invoke(ctx, path, query)
	return err
}
