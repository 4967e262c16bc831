package domain

// Element is one of the five phases.
type Element string

const (
	Wood  Element = "Wood"
	Fire  Element = "Fire"
	Earth Element = "Earth"
	Metal Element = "Metal"
	Water Element = "Water"
)

// Elements in generating-cycle order.
var Elements = []Element{Wood, Fire, Earth, Metal, Water}

// Animal is one of the twelve zodiac animals.
type Animal string

const (
	Rat     Animal = "Rat"
	Ox      Animal = "Ox"
	Tiger   Animal = "Tiger"
	Rabbit  Animal = "Rabbit"
	Dragon  Animal = "Dragon"
	Snake   Animal = "Snake"
	Horse   Animal = "Horse"
	Goat    Animal = "Goat"
	Monkey  Animal = "Monkey"
	Rooster Animal = "Rooster"
	Dog     Animal = "Dog"
	Pig     Animal = "Pig"
)

// Polarity is yin or yang.
type Polarity string

const (
	Yang Polarity = "Yang"
	Yin  Polarity = "Yin"
)

var heavenlyStems = [10]string{"Jia", "Yi", "Bing", "Ding", "Wu", "Ji", "Geng", "Xin", "Ren", "Gui"}

var earthlyBranches = [12]string{"Zi", "Chou", "Yin", "Mao", "Chen", "Si", "Wu", "Wei", "Shen", "You", "Xu", "Hai"}

var animals = [12]Animal{Rat, Ox, Tiger, Rabbit, Dragon, Snake, Horse, Goat, Monkey, Rooster, Dog, Pig}

// Two consecutive stems share an element: Jia/Yi Wood, Bing/Ding Fire, ...
var stemElements = [5]Element{Wood, Fire, Earth, Metal, Water}

var branchElements = [12]Element{
	Water, // Zi
	Earth, // Chou
	Wood,  // Yin
	Wood,  // Mao
	Earth, // Chen
	Fire,  // Si
	Fire,  // Wu
	Earth, // Wei
	Metal, // Shen
	Metal, // You
	Earth, // Xu
	Water, // Hai
}

var branchDirections = [12]string{
	"North", "North-East", "North-East", "East",
	"South-East", "South-East", "South", "South-West",
	"South-West", "West", "North-West", "North-West",
}

// He Tu pairs.
var elementNumbers = map[Element][2]int{
	Water: {1, 6},
	Fire:  {2, 7},
	Wood:  {3, 8},
	Metal: {4, 9},
	Earth: {5, 10},
}

var elementColors = map[Element][]string{
	Wood:  {"Green", "Teal"},
	Fire:  {"Red", "Purple"},
	Earth: {"Yellow", "Brown"},
	Metal: {"White", "Gold"},
	Water: {"Black", "Blue"},
}

var elementTraits = map[Element]string{
	Wood:  "growth, generosity and flexible strength",
	Fire:  "passion, charisma and bold leadership",
	Earth: "stability, patience and nurturing care",
	Metal: "discipline, clarity and quiet determination",
	Water: "wisdom, intuition and adaptability",
}

var animalTraits = map[Animal]string{
	Rat:     "quick-witted and resourceful",
	Ox:      "diligent and dependable",
	Tiger:   "brave and competitive",
	Rabbit:  "gentle and elegant",
	Dragon:  "confident and ambitious",
	Snake:   "wise and enigmatic",
	Horse:   "energetic and free-spirited",
	Goat:    "calm and creative",
	Monkey:  "clever and curious",
	Rooster: "observant and hardworking",
	Dog:     "loyal and honest",
	Pig:     "compassionate and generous",
}

// Traits returns a short description of the element.
func (e Element) Traits() string { return elementTraits[e] }

// Traits returns a short description of the animal.
func (a Animal) Traits() string { return animalTraits[a] }

// Index returns the position of the animal in the 12-year cycle, or -1.
func (a Animal) Index() int {
	for i, v := range animals {
		if v == a {
			return i
		}
	}
	return -1
}

// mod is a remainder that is never negative.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
