package models

// Species is either a gall former or a host plant.
type Species struct {
	ID        int    `json:"id" gorm:"primaryKey"`
	TaxonCode string `json:"taxoncode" gorm:"column:taxoncode;index"`
	Name      string `json:"name" gorm:"uniqueIndex;not null"`

	Hosts []Host `json:"hosts,omitempty" gorm:"foreignKey:GallSpeciesID"`
}

func (Species) TableName() string { return "species" }

// Host links a gall species to a plant species it occurs on.
type Host struct {
	ID            int `json:"id" gorm:"primaryKey"`
	GallSpeciesID int `json:"gall_species_id" gorm:"index;not null"`
	HostSpeciesID int `json:"host_species_id" gorm:"index;not null"`

	HostSpecies *Species `json:"host_species,omitempty" gorm:"foreignKey:HostSpeciesID"`
}

func (Host) TableName() string { return "host" }

// Gall holds the physical traits of a gall species. Unset traits stay nil.
type Gall struct {
	ID         int  `json:"id" gorm:"primaryKey"`
	SpeciesID  int  `json:"species_id" gorm:"index;not null"`
	Detachable *int `json:"detachable"`

	AlignmentID *int `json:"alignment_id"`
	CellsID     *int `json:"cells_id"`
	ColorID     *int `json:"color_id"`
	ShapeID     *int `json:"shape_id"`
	WallsID     *int `json:"walls_id"`

	Species   *Species   `json:"species,omitempty" gorm:"foreignKey:SpeciesID"`
	Alignment *Alignment `json:"alignment,omitempty"`
	Cells     *Cells     `json:"cells,omitempty"`
	Color     *Color     `json:"color,omitempty"`
	Shape     *Shape     `json:"shape,omitempty"`
	Walls     *Walls     `json:"walls,omitempty"`

	Locations []GallLocation `json:"galllocation" gorm:"foreignKey:GallID"`
	Textures  []GallTexture  `json:"galltexture" gorm:"foreignKey:GallID"`
}

func (Gall) TableName() string { return "gall" }

type GallLocation struct {
	GallID     int `json:"gall_id" gorm:"primaryKey;autoIncrement:false"`
	LocationID int `json:"location_id" gorm:"primaryKey;autoIncrement:false"`

	Location *Location `json:"location,omitempty"`
}

func (GallLocation) TableName() string { return "galllocation" }

type GallTexture struct {
	GallID    int `json:"gall_id" gorm:"primaryKey;autoIncrement:false"`
	TextureID int `json:"texture_id" gorm:"primaryKey;autoIncrement:false"`

	Texture *Texture `json:"texture,omitempty"`
}

func (GallTexture) TableName() string { return "galltexture" }

// Image is an uploaded photo. Path is the object key of the original size.
type Image struct {
	ID        int    `json:"id" gorm:"primaryKey"`
	SpeciesID int    `json:"species_id" gorm:"index;not null"`
	Path      string `json:"path" gorm:"not null"`
	Default   bool   `json:"default"`
	Creator   string `json:"creator,omitempty"`
	License   string `json:"license,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

func (Image) TableName() string { return "image" }

// ImagePaths groups public URLs of a set of images by size variant.
type ImagePaths struct {
	Small    []string `json:"small"`
	Medium   []string `json:"medium"`
	Large    []string `json:"large"`
	XLarge   []string `json:"xlarge"`
	Original []string `json:"original"`
}
