package ecs

import "reflect"

// AddComponent 泛型版本：为实体添加组件
func AddComponent[T any](em *EntityManager, id EntityID, component T) {
	em.AddComponent(id, component)
}

// GetComponent 泛型版本：获取实体的特定类型组件
//
// 用法:
//
//	item, ok := ecs.GetComponent[*components.DanmakuComponent](em, id)
func GetComponent[T any](em *EntityManager, id EntityID) (T, bool) {
	var zero T
	compMap, exists := em.components[id]
	if !exists {
		return zero, false
	}
	comp, found := compMap[reflect.TypeFor[T]()]
	if !found {
		return zero, false
	}
	typed, ok := comp.(T)
	return typed, ok
}

// HasComponent 泛型版本：检查实体是否拥有特定类型组件
func HasComponent[T any](em *EntityManager, id EntityID) bool {
	return em.HasComponent(id, reflect.TypeFor[T]())
}

// GetEntitiesWith1 查询拥有组件 T1 的所有实体（按创建顺序）
func GetEntitiesWith1[T1 any](em *EntityManager) []EntityID {
	return em.GetEntitiesWith(reflect.TypeFor[T1]())
}

// GetEntitiesWith2 查询同时拥有组件 T1、T2 的所有实体（按创建顺序）
func GetEntitiesWith2[T1, T2 any](em *EntityManager) []EntityID {
	return em.GetEntitiesWith(reflect.TypeFor[T1](), reflect.TypeFor[T2]())
}

// CountEntitiesWith1 统计拥有组件 T1 且未被标记删除的实体数量
func CountEntitiesWith1[T1 any](em *EntityManager) int {
	ct := reflect.TypeFor[T1]()
	count := 0
	for _, id := range em.order {
		if _, marked := em.entitiesToDestroy[id]; marked {
			continue
		}
		if _, found := em.components[id][ct]; found {
			count++
		}
	}
	return count
}
