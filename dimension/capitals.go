// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dimension

// Capital names a target municipality and the UF it must belong to. The UF
// is what keeps homonymous municipalities apart: Belém exists in Pará,
// Alagoas, and Paraíba, but only one of them is a capital.
type Capital struct {
	Name string
	UF   string
}

// DefaultCapitals returns the 27 Brazilian state (and district) capitals the
// warehouse tracks.
func DefaultCapitals() []Capital {
	return []Capital{
		{Name: "Aracaju", UF: "SE"},
		{Name: "Belém", UF: "PA"},
		{Name: "Belo Horizonte", UF: "MG"},
		{Name: "Boa Vista", UF: "RR"},
		{Name: "Brasília", UF: "DF"},
		{Name: "Campo Grande", UF: "MS"},
		{Name: "Cuiabá", UF: "MT"},
		{Name: "Curitiba", UF: "PR"},
		{Name: "Florianópolis", UF: "SC"},
		{Name: "Fortaleza", UF: "CE"},
		{Name: "Goiânia", UF: "GO"},
		{Name: "João Pessoa", UF: "PB"},
		{Name: "Macapá", UF: "AP"},
		{Name: "Maceió", UF: "AL"},
		{Name: "Manaus", UF: "AM"},
		{Name: "Natal", UF: "RN"},
		{Name: "Palmas", UF: "TO"},
		{Name: "Porto Alegre", UF: "RS"},
		{Name: "Porto Velho", UF: "RO"},
		{Name: "Recife", UF: "PE"},
		{Name: "Rio Branco", UF: "AC"},
		{Name: "Rio de Janeiro", UF: "RJ"},
		{Name: "Salvador", UF: "BA"},
		{Name: "São Luís", UF: "MA"},
		{Name: "São Paulo", UF: "SP"},
		{Name: "Teresina", UF: "PI"},
		{Name: "Vitória", UF: "ES"},
	}
}
