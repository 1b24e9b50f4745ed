package common

type Module string

const (
	ModuleBRC8888 Module = "brc8888"
)

func (m Module) String() string {
	return string(m)
}
