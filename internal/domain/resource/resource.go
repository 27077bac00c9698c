// Package resource defines every collectible and craftable resource in the universe.
// This package is PURE and must NOT import any infrastructure packages.
package resource

import "sort"

// Type is the closed set of resource names. The string value is what gets persisted.
type Type string

// Category groups resources for display and storage rules.
type Category string

const (
	CategoryCurrency  Category = "currency"
	CategoryGas       Category = "gas"
	CategoryIce       Category = "ice"
	CategoryOre       Category = "ore"
	CategoryRock      Category = "rock"
	CategoryCrystal   Category = "crystal"
	CategoryRefined   Category = "refined"
	CategoryComponent Category = "component"
	CategoryOrganic   Category = "organic"
	CategoryStellar   Category = "stellar"
	CategoryExotic    Category = "exotic"
	CategorySalvage   Category = "salvage"
)

// Numins is the in-game currency. It is held both as a resource entry and as the currency counter.
const Numins Type = "Numins"

// Gases
const (
	Hydrogen      Type = "Hydrogen"
	Helium        Type = "Helium"
	Helium3       Type = "Helium-3"
	Nitrogen      Type = "Nitrogen"
	Oxygen        Type = "Oxygen"
	Methane       Type = "Methane"
	Ammonia       Type = "Ammonia"
	Neon          Type = "Neon"
	Argon         Type = "Argon"
	Xenon         Type = "Xenon"
	CarbonDioxide Type = "Carbon Dioxide"
	Deuterium     Type = "Deuterium"
)

// Ices and liquids
const (
	WaterIce      Type = "Water Ice"
	Water         Type = "Water"
	LiquidMethane Type = "Liquid Methane"
	NitrogenIce   Type = "Nitrogen Ice"
	AmmoniaIce    Type = "Ammonia Ice"
	Brine         Type = "Brine"
)

// Ores and minerals
const (
	IronOre     Type = "Iron Ore"
	CopperOre   Type = "Copper Ore"
	NickelOre   Type = "Nickel Ore"
	TitaniumOre Type = "Titanium Ore"
	CobaltOre   Type = "Cobalt Ore"
	AluminumOre Type = "Aluminum Ore"
	LithiumOre  Type = "Lithium Ore"
	UraniumOre  Type = "Uranium Ore"
	ThoriumOre  Type = "Thorium Ore"
	PlatinumOre Type = "Platinum Ore"
	GoldOre     Type = "Gold Ore"
	SilverOre   Type = "Silver Ore"
	TungstenOre Type = "Tungsten Ore"
	ZincOre     Type = "Zinc Ore"
	Magnesium   Type = "Magnesium"
	Sulfur      Type = "Sulfur"
	Silicon     Type = "Silicon"
	Carbon      Type = "Carbon"
	Graphite    Type = "Graphite"
	Basalt      Type = "Basalt"
)

// Rocks and dust
const (
	Regolith      Type = "Regolith"
	Dust          Type = "Dust"
	Sand          Type = "Sand"
	Obsidian      Type = "Obsidian"
	Pumice        Type = "Pumice"
	Meteorite     Type = "Meteorite"
	IronMeteorite Type = "Iron Meteorite"
	Chondrite     Type = "Chondrite"
)

// Crystals and gems
const (
	Quartz   Type = "Quartz"
	Diamond  Type = "Diamond"
	Sapphire Type = "Sapphire"
	Ruby     Type = "Ruby"
	Emerald  Type = "Emerald"
	Amethyst Type = "Amethyst"
	Topaz    Type = "Topaz"
	Opal     Type = "Opal"
	Olivine  Type = "Olivine"
	Jade     Type = "Jade"
)

// Refined materials
const (
	IronIngot      Type = "Iron Ingot"
	CopperIngot    Type = "Copper Ingot"
	TitaniumIngot  Type = "Titanium Ingot"
	Steel          Type = "Steel"
	Aluminum       Type = "Aluminum"
	Glass          Type = "Glass"
	Polymer        Type = "Polymer"
	Ceramic        Type = "Ceramic"
	CarbonFiber    Type = "Carbon Fiber"
	Graphene       Type = "Graphene"
	Alloy          Type = "Alloy"
	Superconductor Type = "Superconductor"
	Nanotubes      Type = "Nanotubes"
	Fuel           Type = "Fuel"
)

// Components
const (
	Wire           Type = "Wire"
	Circuit        Type = "Circuit"
	Microchip      Type = "Microchip"
	Battery        Type = "Battery"
	PowerCell      Type = "Power Cell"
	Magnet         Type = "Magnet"
	Lens           Type = "Lens"
	Sensor         Type = "Sensor"
	Antenna        Type = "Antenna"
	Gear           Type = "Gear"
	Plating        Type = "Plating"
	HullPanel      Type = "Hull Panel"
	ThrusterNozzle Type = "Thruster Nozzle"
	Processor      Type = "Processor"
)

// Organics
const (
	Biomass  Type = "Biomass"
	Spores   Type = "Spores"
	Algae    Type = "Algae"
	Fungus   Type = "Fungus"
	Amber    Type = "Amber"
	Resin    Type = "Resin"
	Chitin   Type = "Chitin"
	Seeds    Type = "Seeds"
	Bacteria Type = "Bacteria"
	Enzymes  Type = "Enzymes"
	Fossil   Type = "Fossil"
	BioGel   Type = "Bioluminescent Gel"
)

// Stellar matter
const (
	Plasma         Type = "Plasma"
	StellarDust    Type = "Stellar Dust"
	FlareFragment  Type = "Flare Fragment"
	CoronaFilament Type = "Corona Filament"
	NeutronDust    Type = "Neutron Dust"
	MagnetarShard  Type = "Magnetar Shard"
	QuarkMatter    Type = "Quark Matter"
	Photonite      Type = "Photonite"
	IonStream      Type = "Ion Stream"
	GammaCrystal   Type = "Gamma Crystal"
)

// Exotic matter
const (
	DarkMatter          Type = "Dark Matter"
	Antimatter          Type = "Antimatter"
	ExoticMatter        Type = "Exotic Matter"
	VoidEssence         Type = "Void Essence"
	TimeCrystal         Type = "Time Crystal"
	QuantumFoam         Type = "Quantum Foam"
	GravitonShard       Type = "Graviton Shard"
	Tachyon             Type = "Tachyon Particles"
	SingularityFragment Type = "Singularity Fragment"
	Nullstone           Type = "Nullstone"
	ChronoDust          Type = "Chrono Dust"
	RelicFragment       Type = "Relic Fragment"
)

// Salvage
const (
	ScrapMetal     Type = "Scrap Metal"
	HullFragment   Type = "Hull Fragment"
	DamagedCircuit Type = "Damaged Circuit"
	FuelCell       Type = "Fuel Cell"
	Coolant        Type = "Coolant"
	DataCore       Type = "Data Core"
	AncientTech    Type = "Ancient Tech"
	Wreckage       Type = "Wreckage"
)

// Info is the static display metadata for a resource type.
type Info struct {
	Icon     string   `json:"icon"`
	Color    string   `json:"color"`
	Category Category `json:"category"`
	Lore     string   `json:"lore,omitempty"`
}

// Registry contains all known resources and their display properties.
var Registry = map[Type]Info{
	Numins: {Icon: "circle.hexagongrid.fill", Color: "yellow", Category: CategoryCurrency, Lore: "Crystallized trade value, accepted at every port in the known systems."},

	Hydrogen:      {Icon: "h.circle.fill", Color: "cyan", Category: CategoryGas},
	Helium:        {Icon: "balloon.fill", Color: "pink", Category: CategoryGas},
	Helium3:       {Icon: "atom", Color: "purple", Category: CategoryGas, Lore: "Fusion fuel skimmed from lunar soil and gas giants."},
	Nitrogen:      {Icon: "wind", Color: "blue", Category: CategoryGas},
	Oxygen:        {Icon: "o.circle.fill", Color: "teal", Category: CategoryGas},
	Methane:       {Icon: "flame", Color: "orange", Category: CategoryGas},
	Ammonia:       {Icon: "aqi.medium", Color: "mint", Category: CategoryGas},
	Neon:          {Icon: "lightbulb.fill", Color: "red", Category: CategoryGas},
	Argon:         {Icon: "sparkle", Color: "indigo", Category: CategoryGas},
	Xenon:         {Icon: "bolt.fill", Color: "blue", Category: CategoryGas},
	CarbonDioxide: {Icon: "cloud.fill", Color: "gray", Category: CategoryGas},
	Deuterium:     {Icon: "drop.triangle.fill", Color: "cyan", Category: CategoryGas},

	WaterIce:      {Icon: "snowflake", Color: "cyan", Category: CategoryIce},
	Water:         {Icon: "drop.fill", Color: "blue", Category: CategoryIce},
	LiquidMethane: {Icon: "drop.halffull", Color: "orange", Category: CategoryIce},
	NitrogenIce:   {Icon: "snowflake.circle", Color: "blue", Category: CategoryIce},
	AmmoniaIce:    {Icon: "snowflake.circle.fill", Color: "mint", Category: CategoryIce},
	Brine:         {Icon: "drop.circle", Color: "teal", Category: CategoryIce},

	IronOre:     {Icon: "cube.fill", Color: "gray", Category: CategoryOre},
	CopperOre:   {Icon: "cube.fill", Color: "orange", Category: CategoryOre},
	NickelOre:   {Icon: "cube.fill", Color: "green", Category: CategoryOre},
	TitaniumOre: {Icon: "cube.fill", Color: "white", Category: CategoryOre},
	CobaltOre:   {Icon: "cube.fill", Color: "blue", Category: CategoryOre},
	AluminumOre: {Icon: "cube.fill", Color: "silver", Category: CategoryOre},
	LithiumOre:  {Icon: "battery.25", Color: "pink", Category: CategoryOre},
	UraniumOre:  {Icon: "rays", Color: "green", Category: CategoryOre, Lore: "Handle with shielding. Glows faintly in the cargo hold."},
	ThoriumOre:  {Icon: "rays", Color: "yellow", Category: CategoryOre},
	PlatinumOre: {Icon: "cube.fill", Color: "white", Category: CategoryOre},
	GoldOre:     {Icon: "cube.fill", Color: "yellow", Category: CategoryOre},
	SilverOre:   {Icon: "cube.fill", Color: "silver", Category: CategoryOre},
	TungstenOre: {Icon: "cube.fill", Color: "brown", Category: CategoryOre},
	ZincOre:     {Icon: "cube.fill", Color: "gray", Category: CategoryOre},
	Magnesium:   {Icon: "flame.fill", Color: "white", Category: CategoryOre},
	Sulfur:      {Icon: "aqi.high", Color: "yellow", Category: CategoryOre},
	Silicon:     {Icon: "square.grid.3x3.fill", Color: "gray", Category: CategoryOre},
	Carbon:      {Icon: "hexagon.fill", Color: "black", Category: CategoryOre},
	Graphite:    {Icon: "pencil", Color: "gray", Category: CategoryOre},
	Basalt:      {Icon: "mountain.2.fill", Color: "black", Category: CategoryOre},

	Regolith:      {Icon: "circle.dotted", Color: "brown", Category: CategoryRock},
	Dust:          {Icon: "aqi.low", Color: "brown", Category: CategoryRock},
	Sand:          {Icon: "hourglass", Color: "yellow", Category: CategoryRock},
	Obsidian:      {Icon: "triangle.fill", Color: "black", Category: CategoryRock},
	Pumice:        {Icon: "circle.grid.cross", Color: "gray", Category: CategoryRock},
	Meteorite:     {Icon: "moon.fill", Color: "brown", Category: CategoryRock},
	IronMeteorite: {Icon: "moon.circle.fill", Color: "gray", Category: CategoryRock},
	Chondrite:     {Icon: "circle.hexagonpath", Color: "brown", Category: CategoryRock},

	Quartz:   {Icon: "diamond", Color: "white", Category: CategoryCrystal},
	Diamond:  {Icon: "diamond.fill", Color: "cyan", Category: CategoryCrystal},
	Sapphire: {Icon: "diamond.fill", Color: "blue", Category: CategoryCrystal},
	Ruby:     {Icon: "diamond.fill", Color: "red", Category: CategoryCrystal},
	Emerald:  {Icon: "diamond.fill", Color: "green", Category: CategoryCrystal},
	Amethyst: {Icon: "diamond.fill", Color: "purple", Category: CategoryCrystal},
	Topaz:    {Icon: "diamond.fill", Color: "orange", Category: CategoryCrystal},
	Opal:     {Icon: "seal.fill", Color: "white", Category: CategoryCrystal},
	Olivine:  {Icon: "circle.fill", Color: "green", Category: CategoryCrystal},
	Jade:     {Icon: "leaf.circle.fill", Color: "green", Category: CategoryCrystal},

	IronIngot:      {Icon: "rectangle.fill", Color: "gray", Category: CategoryRefined},
	CopperIngot:    {Icon: "rectangle.fill", Color: "orange", Category: CategoryRefined},
	TitaniumIngot:  {Icon: "rectangle.fill", Color: "white", Category: CategoryRefined},
	Steel:          {Icon: "shield.fill", Color: "gray", Category: CategoryRefined},
	Aluminum:       {Icon: "rectangle.portrait.fill", Color: "silver", Category: CategoryRefined},
	Glass:          {Icon: "square.on.square", Color: "cyan", Category: CategoryRefined},
	Polymer:        {Icon: "scribble.variable", Color: "purple", Category: CategoryRefined},
	Ceramic:        {Icon: "cup.and.saucer.fill", Color: "white", Category: CategoryRefined},
	CarbonFiber:    {Icon: "line.3.crossed.swirl.circle.fill", Color: "black", Category: CategoryRefined},
	Graphene:       {Icon: "hexagon", Color: "black", Category: CategoryRefined},
	Alloy:          {Icon: "square.stack.3d.up.fill", Color: "gray", Category: CategoryRefined},
	Superconductor: {Icon: "bolt.horizontal.fill", Color: "blue", Category: CategoryRefined},
	Nanotubes:      {Icon: "circle.grid.hex.fill", Color: "black", Category: CategoryRefined},
	Fuel:           {Icon: "fuelpump.fill", Color: "orange", Category: CategoryRefined},

	Wire:           {Icon: "point.3.connected.trianglepath.dotted", Color: "orange", Category: CategoryComponent},
	Circuit:        {Icon: "cpu", Color: "green", Category: CategoryComponent},
	Microchip:      {Icon: "memorychip", Color: "green", Category: CategoryComponent},
	Battery:        {Icon: "battery.100", Color: "green", Category: CategoryComponent},
	PowerCell:      {Icon: "bolt.batteryblock.fill", Color: "yellow", Category: CategoryComponent},
	Magnet:         {Icon: "magnet", Color: "red", Category: CategoryComponent},
	Lens:           {Icon: "camera.aperture", Color: "cyan", Category: CategoryComponent},
	Sensor:         {Icon: "sensor.fill", Color: "blue", Category: CategoryComponent},
	Antenna:        {Icon: "antenna.radiowaves.left.and.right", Color: "gray", Category: CategoryComponent},
	Gear:           {Icon: "gearshape.fill", Color: "gray", Category: CategoryComponent},
	Plating:        {Icon: "square.fill", Color: "silver", Category: CategoryComponent},
	HullPanel:      {Icon: "square.split.2x2.fill", Color: "gray", Category: CategoryComponent},
	ThrusterNozzle: {Icon: "flame.circle.fill", Color: "orange", Category: CategoryComponent},
	Processor:      {Icon: "cpu.fill", Color: "blue", Category: CategoryComponent},

	Biomass:  {Icon: "leaf.fill", Color: "green", Category: CategoryOrganic},
	Spores:   {Icon: "aqi.medium", Color: "brown", Category: CategoryOrganic},
	Algae:    {Icon: "water.waves", Color: "green", Category: CategoryOrganic},
	Fungus:   {Icon: "allergens", Color: "brown", Category: CategoryOrganic},
	Amber:    {Icon: "drop.fill", Color: "orange", Category: CategoryOrganic, Lore: "Fossilized sap. Some pieces still hold insects from worlds long gone."},
	Resin:    {Icon: "drop", Color: "yellow", Category: CategoryOrganic},
	Chitin:   {Icon: "ant.fill", Color: "brown", Category: CategoryOrganic},
	Seeds:    {Icon: "laurel.leading", Color: "green", Category: CategoryOrganic},
	Bacteria: {Icon: "microbe.fill", Color: "mint", Category: CategoryOrganic},
	Enzymes:  {Icon: "testtube.2", Color: "pink", Category: CategoryOrganic},
	Fossil:   {Icon: "fossil.shell.fill", Color: "brown", Category: CategoryOrganic},
	BioGel:   {Icon: "lightbulb.led.fill", Color: "cyan", Category: CategoryOrganic},

	Plasma:         {Icon: "sun.max.fill", Color: "orange", Category: CategoryStellar},
	StellarDust:    {Icon: "sparkles", Color: "yellow", Category: CategoryStellar},
	FlareFragment:  {Icon: "sun.dust.fill", Color: "red", Category: CategoryStellar},
	CoronaFilament: {Icon: "sun.haze.fill", Color: "yellow", Category: CategoryStellar},
	NeutronDust:    {Icon: "circle.dotted.circle", Color: "purple", Category: CategoryStellar},
	MagnetarShard:  {Icon: "bolt.shield.fill", Color: "indigo", Category: CategoryStellar},
	QuarkMatter:    {Icon: "circle.hexagongrid", Color: "purple", Category: CategoryStellar},
	Photonite:      {Icon: "light.max", Color: "white", Category: CategoryStellar},
	IonStream:      {Icon: "waveform.path", Color: "blue", Category: CategoryStellar},
	GammaCrystal:   {Icon: "rays", Color: "green", Category: CategoryStellar},

	DarkMatter:          {Icon: "circle.fill", Color: "black", Category: CategoryExotic, Lore: "It does not reflect, absorb or emit. Your sensors insist the container is full."},
	Antimatter:          {Icon: "plusminus.circle.fill", Color: "pink", Category: CategoryExotic},
	ExoticMatter:        {Icon: "hurricane", Color: "purple", Category: CategoryExotic},
	VoidEssence:         {Icon: "circle.dashed", Color: "indigo", Category: CategoryExotic},
	TimeCrystal:         {Icon: "clock.fill", Color: "cyan", Category: CategoryExotic},
	QuantumFoam:         {Icon: "bubbles.and.sparkles.fill", Color: "white", Category: CategoryExotic},
	GravitonShard:       {Icon: "arrow.down.circle.fill", Color: "indigo", Category: CategoryExotic},
	Tachyon:             {Icon: "hare.fill", Color: "yellow", Category: CategoryExotic},
	SingularityFragment: {Icon: "smallcircle.filled.circle", Color: "black", Category: CategoryExotic},
	Nullstone:           {Icon: "nosign", Color: "gray", Category: CategoryExotic},
	ChronoDust:          {Icon: "hourglass.circle.fill", Color: "yellow", Category: CategoryExotic},
	RelicFragment:       {Icon: "scroll.fill", Color: "orange", Category: CategoryExotic, Lore: "A shard of something built before the first stars cooled."},

	ScrapMetal:     {Icon: "wrench.and.screwdriver.fill", Color: "gray", Category: CategorySalvage},
	HullFragment:   {Icon: "square.dashed", Color: "gray", Category: CategorySalvage},
	DamagedCircuit: {Icon: "cpu", Color: "red", Category: CategorySalvage},
	FuelCell:       {Icon: "fuelpump.circle.fill", Color: "orange", Category: CategorySalvage},
	Coolant:        {Icon: "thermometer.snowflake", Color: "cyan", Category: CategorySalvage},
	DataCore:       {Icon: "externaldrive.fill", Color: "blue", Category: CategorySalvage},
	AncientTech:    {Icon: "gearshape.2.fill", Color: "orange", Category: CategorySalvage},
	Wreckage:       {Icon: "xmark.octagon.fill", Color: "gray", Category: CategorySalvage},
}

var unknownInfo = Info{Icon: "questionmark.circle", Color: "gray"}

// Lookup returns the display metadata for t. Unknown types get a neutral placeholder.
func Lookup(t Type) Info {
	if info, ok := Registry[t]; ok {
		return info
	}
	return unknownInfo
}

// IsKnown reports whether t is part of the catalog.
func IsKnown(t Type) bool {
	_, ok := Registry[t]
	return ok
}

// Parse converts a persisted name into a Type, rejecting names outside the catalog.
func Parse(name string) (Type, bool) {
	t := Type(name)
	return t, IsKnown(t)
}

// IsCurrency reports whether t counts as currency. Currency is exempt from storage capacity.
func IsCurrency(t Type) bool {
	return Lookup(t).Category == CategoryCurrency
}

// All returns every catalogued type in a stable order.
func All() []Type {
	out := make([]Type, 0, len(Registry))
	for t := range Registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stack is a player-owned quantity of one resource type.
type Stack struct {
	Type   Type    `json:"type"`
	Amount float64 `json:"amount"`
}

// Icon returns the display icon of the held resource.
func (s Stack) Icon() string { return Lookup(s.Type).Icon }

// Color returns the display color of the held resource.
func (s Stack) Color() string { return Lookup(s.Type).Color }
