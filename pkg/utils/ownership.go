/*
Copyright © contributors to CloudNativePG, established as
CloudNativePG a Series of LF Projects, LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
)

// SetAsOwnedBy sets the controlled object as owned by a certain other
// controller object with his type information
func SetAsOwnedBy(controlled *metav1.ObjectMeta, controller metav1.ObjectMeta, typeMeta metav1.TypeMeta) {
	isController := true
	blockOwnerDeletion := true

	controlled.SetOwnerReferences([]metav1.OwnerReference{
		{
			APIVersion:         typeMeta.APIVersion,
			Kind:               typeMeta.Kind,
			Name:               controller.Name,
			UID:                controller.UID,
			Controller:         &isController,
			BlockOwnerDeletion: &blockOwnerDeletion,
		},
	})
}

// GetControllerUID gets the UID of the controller owning a certain object,
// if any
func GetControllerUID(controlled metav1.Object) (types.UID, bool) {
	if owner := metav1.GetControllerOf(controlled); owner != nil {
		return owner.UID, true
	}
	return "", false
}

// IsOwnedBy checks if the object is controlled by the object having
// the passed UID
func IsOwnedBy(controlled metav1.Object, ownerUID types.UID) bool {
	uid, ok := GetControllerUID(controlled)
	return ok && uid == ownerUID
}
