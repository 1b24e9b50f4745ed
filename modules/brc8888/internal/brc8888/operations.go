package brc8888

type OperationKind string

const (
	OperationDeploy OperationKind = "deploy"
	OperationMint   OperationKind = "mint"
	OperationEvolve OperationKind = "evolve"
)

func (o OperationKind) IsValid() bool {
	switch o {
	case OperationDeploy, OperationMint, OperationEvolve:
		return true
	}
	return false
}

func (o OperationKind) String() string {
	return string(o)
}
