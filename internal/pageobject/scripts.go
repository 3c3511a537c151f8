package pageobject

import "fmt"

const formStateScript = `(function(){
	var form = document.getElementById("widget-dialogue-form");
	if (!form) { return []; }
	var states = [];
	form.querySelectorAll(".form-grid > label").forEach(function(label){
		var field = label.nextElementSibling;
		if (!field || !field.classList.contains("form-field")) { return; }
		var style = window.getComputedStyle(field);
		var state = {label: label.textContent.trim(), kind: "", text: "", checked: false, items: [], tags: [], enabled: true,
			visible: field.offsetParent !== null && style.visibility !== "hidden" && style.display !== "none"};
		var tagTable = field.querySelector("table[id^='tags_table']");
		var multiselect = field.querySelector("div.multiselect");
		var radioList = field.querySelector("ul.radio-list-control");
		var select = field.querySelector("z-select");
		var checkbox = field.querySelector("input[type=checkbox]");
		var textInput = field.querySelector("input[type=text], input[type=number], input:not([type]), textarea");
		if (tagTable) {
			state.kind = "tags";
			tagTable.querySelectorAll("tr.form_row").forEach(function(row){
				var tag = row.querySelector("input[id$='_tag']");
				var operator = row.querySelector("z-select[id$='_operator'] button");
				var value = row.querySelector("input[id$='_value']");
				state.tags.push({tag: tag ? tag.value : "", operator: operator ? operator.textContent.trim() : "", value: value ? value.value : ""});
			});
			state.enabled = !tagTable.closest("[disabled]");
		} else if (multiselect) {
			state.kind = "multiselect";
			multiselect.querySelectorAll(".multiselect-list li").forEach(function(item){
				state.items.push((item.getAttribute("data-label") || item.textContent).trim());
			});
			state.enabled = !multiselect.classList.contains("disabled") && multiselect.getAttribute("aria-disabled") !== "true";
		} else if (radioList) {
			state.kind = "radio";
			var checked = radioList.querySelector("input[type=radio]:checked");
			if (checked) {
				var checkedLabel = radioList.querySelector("label[for='" + checked.id + "']");
				state.text = checkedLabel ? checkedLabel.textContent.trim() : checked.value;
				state.enabled = !checked.disabled;
			}
		} else if (select) {
			state.kind = "select";
			var button = select.querySelector("button");
			state.text = button ? button.textContent.trim() : "";
			state.enabled = !select.hasAttribute("disabled");
		} else if (checkbox) {
			state.kind = "checkbox";
			state.checked = checkbox.checked;
			state.enabled = !checkbox.disabled;
		} else if (textInput) {
			state.kind = "text";
			state.text = textInput.value;
			state.enabled = !textInput.disabled && !textInput.readOnly;
		} else {
			return;
		}
		states.push(state);
	});
	return states;
})()`

const formLoadingScript = `(function(){
	var dialogue = document.querySelector("div.overlay-dialogue.modal");
	return !!dialogue && dialogue.classList.contains("is-loading");
})()`

func xpathNodeScript(body string, xpath string) string {
	return fmt.Sprintf(`(function(xpath){
	var node = document.evaluate(xpath, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	%s
})(%q)`, body, xpath)
}

// boundsScript measures a widget relative to the dashboard grid.
func boundsScript(xpath string) string {
	return xpathNodeScript(`var grid = document.querySelector("div.dashboard-grid");
	if (!node || !grid) { return {left: 0, top: 0, width: 0, height: 0, gridWidth: 0}; }
	var box = node.getBoundingClientRect();
	var gridBox = grid.getBoundingClientRect();
	return {left: box.left - gridBox.left, top: box.top - gridBox.top, width: box.width, height: box.height, gridWidth: gridBox.width};`, xpath)
}

// clickScript clicks an element that is only shown on hover.
func clickScript(xpath string) string {
	return xpathNodeScript(`if (!node) { return false; }
	node.click();
	return true;`, xpath)
}

func checkedScript(xpath string) string {
	return xpathNodeScript(`return !!(node && node.checked);`, xpath)
}
