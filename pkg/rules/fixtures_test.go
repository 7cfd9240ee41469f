package rules

import "retail-assortment-optimizer/pkg/domain"

// fixtureCluster builds a single five-store cluster and a roster of SPUs
// covering every role, for use across this package's rule tests.
func fixtureStores() []domain.Store {
	return []domain.Store{
		{StoreID: "S1", EstimatedRackCapacity: 500, CapacityUtilization: 0.50},
		{StoreID: "S2", EstimatedRackCapacity: 500, CapacityUtilization: 0.55},
		{StoreID: "S3", EstimatedRackCapacity: 500, CapacityUtilization: 0.60},
		{StoreID: "S4", EstimatedRackCapacity: 500, CapacityUtilization: 0.45},
		{StoreID: "S5", EstimatedRackCapacity: 500, CapacityUtilization: 0.40},
	}
}

func fixtureSPUs() []domain.SPU {
	return []domain.SPU{
		{SPUID: "SPU-A", Category: "Apparel", Subcategory: "Jackets", Role: domain.RoleCore, UnitCost: 20},
		{SPUID: "SPU-B", Category: "Apparel", Subcategory: "Jackets", Role: domain.RoleSeasonal, UnitCost: 15},
		{SPUID: "SPU-C", Category: "Apparel", Subcategory: "Tees", Role: domain.RoleClearance, UnitCost: 5},
	}
}

func fixtureCluster(memberIDs []string) domain.Cluster {
	return domain.Cluster{ClusterID: 1, MemberStoreIDs: memberIDs}
}
